package ledger

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/payments"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	Cancel(ctx context.Context, id int64, cancelledBy domain.CancelledBy, reason string, feePercent float64) error
	MarkNoShow(ctx context.Context, id int64, at time.Time) error
}

// HoldRepository интерфейс репозитория холдов
type HoldRepository interface {
	Create(ctx context.Context, h *domain.SlotHold) (*domain.SlotHold, error)
	GetByID(ctx context.Context, id int64) (*domain.SlotHold, error)
	GetActiveByProviderDate(ctx context.Context, providerID int64, date time.Time, now time.Time) ([]*domain.SlotHold, error)
	GetByPackageKey(ctx context.Context, packageKey string) ([]*domain.SlotHold, error)
	Delete(ctx context.Context, id int64) error
	DeleteByPackageKey(ctx context.Context, packageKey string) error
	DeleteExpired(ctx context.Context, now time.Time) ([]*domain.SlotHold, error)
}

// ConfigRepository интерфейс репозитория конфигурации расписания
type ConfigRepository interface {
	GetConfigWithHierarchy(ctx context.Context, providerID int64, locationID, serviceID *int64) (*domain.SchedulingConfig, error)
}

// WaitlistRepository интерфейс репозитория листа ожидания.
// Ledger использует его только для подтверждения офферов.
type WaitlistRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error)
	MarkConfirmed(ctx context.Context, id int64) error
	MarkExpired(ctx context.Context, id int64) error
}

// AuditRepository интерфейс журнала аудита
type AuditRepository interface {
	Record(ctx context.Context, event *domain.AuditEvent) error
}

// AvailabilityResolver вычисляет итоговые интервалы доступности на дату
type AvailabilityResolver interface {
	ResolveWindows(ctx context.Context, providerID int64, date time.Time) ([]domain.TimeRange, error)
}

// PolicyService политика отмен и неявок
type PolicyService interface {
	ComputeFee(booking *domain.Booking) (float64, error)
	RecordNoShow(ctx context.Context, clientID, bookingID int64, at time.Time) error
	BlockStatus(ctx context.Context, clientID int64) (*domain.BlockStatus, error)
}

// WaitlistPromoter уведомляется об освобождении ёмкости.
// Вызывается после фиксации транзакции освобождения.
type WaitlistPromoter interface {
	OnRelease(ctx context.Context, providerID int64, date time.Time, released domain.TimeRange, durationMinutes int) error
}

// CatalogClient интерфейс клиента CatalogService
type CatalogClient interface {
	GetProvider(ctx context.Context, providerID int64) (*catalogservice.Provider, error)
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// PaymentsClient интерфейс платежного клиента
type PaymentsClient interface {
	Authorize(ctx context.Context, request payments.AuthorizeRequest) (*payments.AuthorizeResponse, error)
	Capture(ctx context.Context, authID string, amount float64) error
	Refund(ctx context.Context, authID string, amount float64) error
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
