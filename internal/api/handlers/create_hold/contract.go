package create_hold

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
)

type BookingLedger interface {
	Hold(ctx context.Context, req ledger.HoldRequest) (*domain.SlotHold, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
