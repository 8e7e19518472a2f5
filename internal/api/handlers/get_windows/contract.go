package get_windows

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type AvailabilityService interface {
	GetWindows(ctx context.Context, providerID int64) ([]*domain.AvailabilityWindow, error)
	ResolveWindows(ctx context.Context, providerID int64, date time.Time) ([]domain.TimeRange, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
