package reserve_package

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	catalogClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// UseCase use case пакетной резервации: несколько услуг подряд одним
// бронированием, по принципу все-или-ничего
type UseCase struct {
	ledger       BookingLedger
	catalog      CatalogClient
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingLedger BookingLedger, catalog CatalogClient, logger Logger) *UseCase {
	return &UseCase{
		ledger:       bookingLedger,
		catalog:      catalog,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет пакетную резервацию.
// Холды захватываются последовательно в порядке следования услуг: каждая
// следующая услуга начинается там, где закончилась предыдущая вместе с ее
// буфером. При отказе любого холда все уже захваченные снимаются, и
// возвращается PartialFailureError с индексом отказавшей услуги.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReservePackage: client=%d, provider=%d, location=%d, services=%d, date=%s, time=%s",
		req.ClientID, req.ProviderID, req.LocationID, len(req.ServiceIDs), req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReservePackage: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем услуги пакета в заявленном порядке
	services := make([]*catalogClient.Service, 0, len(req.ServiceIDs))
	for i, serviceID := range req.ServiceIDs {
		service, err := uc.catalog.GetService(ctx, serviceID)
		if err != nil {
			if errors.Is(err, catalogClient.ErrServiceNotFound) {
				uc.logger.Warn("ReservePackage: service id=%d (index %d) not found", serviceID, i)
				return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, serviceID)
			}
			uc.logger.Error("ReservePackage: failed to get service id=%d: %v", serviceID, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
		if service.ProviderID != req.ProviderID {
			uc.logger.Warn("ReservePackage: service id=%d does not belong to provider id=%d", serviceID, req.ProviderID)
			return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, serviceID)
		}
		services = append(services, service)
	}

	// 3. Вычисляем времена начала: следующая услуга начинается после
	// окончания предыдущей плюс ее буфер после
	starts, err := consecutiveStartTimes(req.StartTime, services)
	if err != nil {
		uc.logger.Warn("ReservePackage: failed to lay out package timeline: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	packageKey := uuid.NewString()

	// 4. Захватываем холды в порядке возрастания времени начала
	for i, service := range services {
		_, err := uc.ledger.Hold(ctx, ledger.HoldRequest{
			ClientID:   req.ClientID,
			ProviderID: req.ProviderID,
			LocationID: req.LocationID,
			ServiceID:  service.ID,
			Date:       req.Date,
			StartTime:  starts[i],
			PackageKey: &packageKey,
		})
		if err != nil {
			uc.logger.Warn("ReservePackage: hold failed at index %d (service=%d, time=%s): %v",
				i, service.ID, starts[i], err)
			uc.releaseAcquired(ctx, packageKey)
			return nil, &PartialFailureError{FailedIndex: i, ServiceID: service.ID, Err: err}
		}
	}

	// 5. Конвертируем пакет холдов в единое бронирование
	booking, err := uc.ledger.CommitPackage(ctx, packageKey, ledger.CommitRequest{
		ClientID:       req.ClientID,
		InstantCapture: req.InstantCapture,
		Notes:          req.Notes,
	})
	if err != nil {
		uc.logger.Error("ReservePackage: commit failed for package=%s: %v", packageKey, err)
		uc.releaseAcquired(ctx, packageKey)
		return nil, err
	}

	uc.logger.Info("ReservePackage: booking id=%d created for package=%s (%d services)",
		booking.ID, packageKey, len(services))

	return &Response{
		PackageKey: packageKey,
		Booking:    booking,
	}, nil
}

// releaseAcquired снимает уже захваченные холды пакета; отказ снятия не
// фатален, оставшиеся холды истекут по TTL
func (uc *UseCase) releaseAcquired(ctx context.Context, packageKey string) {
	if err := uc.ledger.ReleasePackage(ctx, packageKey); err != nil {
		uc.logger.Error("ReservePackage: failed to release package=%s: %v", packageKey, err)
	}
}

// consecutiveStartTimes раскладывает услуги пакета по таймлайну дня
func consecutiveStartTimes(first types.TimeString, services []*catalogClient.Service) ([]types.TimeString, error) {
	starts := make([]types.TimeString, len(services))
	current := first

	for i, service := range services {
		starts[i] = current

		if i == len(services)-1 {
			break
		}

		next, err := current.AddMinutes(service.DurationMinutes + service.BufferAfterMinutes)
		if err != nil {
			return nil, fmt.Errorf("service index %d overflows the day: %v", i, err)
		}
		current = next
	}

	return starts, nil
}
