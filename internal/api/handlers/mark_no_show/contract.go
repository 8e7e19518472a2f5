package mark_no_show

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type BookingLedger interface {
	MarkNoShow(ctx context.Context, bookingID int64, actor string) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
