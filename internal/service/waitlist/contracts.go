package waitlist

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// WaitlistRepository интерфейс репозитория листа ожидания
type WaitlistRepository interface {
	Create(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error)
	GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error)
	GetWaitingByProviderDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.WaitlistEntry, error)
	GetExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error)
	MarkOffered(ctx context.Context, id int64, offerStart types.TimeString, offerDuration int, offeredAt, expiresAt time.Time) error
	MarkExpired(ctx context.Context, id int64) error
}

// AuditRepository интерфейс журнала аудита
type AuditRepository interface {
	Record(ctx context.Context, event *domain.AuditEvent) error
}

// Notifier интерфейс диспетчера уведомлений
type Notifier interface {
	Dispatch(event notify.Event)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
