package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// AvailabilityRepository интерфейс репозитория расписания
type AvailabilityRepository interface {
	ReplaceWindows(ctx context.Context, providerID int64, windows []*domain.AvailabilityWindow) error
	GetWindowsByProvider(ctx context.Context, providerID int64) ([]*domain.AvailabilityWindow, error)
	GetWindowsByWeekday(ctx context.Context, providerID int64, weekday time.Weekday) ([]*domain.AvailabilityWindow, error)
	CreateException(ctx context.Context, e *domain.AvailabilityException) (*domain.AvailabilityException, error)
	GetExceptionsByDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.AvailabilityException, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
