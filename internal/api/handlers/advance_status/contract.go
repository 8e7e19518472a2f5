package advance_status

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type BookingLedger interface {
	AdvanceStatus(ctx context.Context, bookingID int64, to domain.BookingStatus, actor string) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
