package policy

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// NoShowRepository интерфейс репозитория событий неявки
type NoShowRepository interface {
	Create(ctx context.Context, e *domain.NoShowEvent) (*domain.NoShowEvent, error)
	GetByClientSince(ctx context.Context, clientID int64, since time.Time) ([]*domain.NoShowEvent, error)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
