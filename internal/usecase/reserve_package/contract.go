package reserve_package

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
)

// BookingLedger интерфейс леджера бронирований
type BookingLedger interface {
	// Hold захватывает слот временным холдом
	Hold(ctx context.Context, req ledger.HoldRequest) (*domain.SlotHold, error)
	// CommitPackage конвертирует все холды пакета в одно бронирование
	CommitPackage(ctx context.Context, packageKey string, req ledger.CommitRequest) (*domain.Booking, error)
	// ReleasePackage снимает все холды пакета
	ReleasePackage(ctx context.Context, packageKey string) error
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
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
