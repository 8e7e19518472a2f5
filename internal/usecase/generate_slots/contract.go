package generate_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// GetByProviderWithFilter получает бронирования провайдера за период
	GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
}

// HoldRepository интерфейс репозитория временных холдов
type HoldRepository interface {
	// GetActiveByProviderDate получает неистекшие холды провайдера на дату
	GetActiveByProviderDate(ctx context.Context, providerID int64, date time.Time, now time.Time) ([]*domain.SlotHold, error)
}

// ConfigRepository интерфейс репозитория конфигурации расписания
type ConfigRepository interface {
	// GetConfigWithHierarchy получает конфигурацию с учетом иерархии приоритетов
	GetConfigWithHierarchy(ctx context.Context, providerID int64, locationID *int64, serviceID *int64) (*domain.SchedulingConfig, error)
}

// AvailabilityResolver интерфейс сервиса доступности
type AvailabilityResolver interface {
	// ResolveWindows возвращает итоговые окна доступности на дату
	ResolveWindows(ctx context.Context, providerID int64, date time.Time) ([]domain.TimeRange, error)
}

// CatalogClient интерфейс клиента каталога провайдеров и услуг
type CatalogClient interface {
	GetProvider(ctx context.Context, providerID int64) (*catalogservice.Provider, error)
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
