package generate_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	configRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/config"
	catalogClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// UseCase use case для генерации доступных слотов на дату
type UseCase struct {
	bookingRepo  BookingRepository
	holdRepo     HoldRepository
	configRepo   ConfigRepository
	availability AvailabilityResolver
	catalog      CatalogClient
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	holdRepo HoldRepository,
	configRepo ConfigRepository,
	availability AvailabilityResolver,
	catalog CatalogClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		holdRepo:     holdRepo,
		configRepo:   configRepo,
		availability: availability,
		catalog:      catalog,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case генерации слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GenerateSlots: client=%d, provider=%d, location=%d, service=%d, date=%s",
		req.ClientID, req.ProviderID, req.LocationID, req.ServiceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GenerateSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Получаем провайдера и проверяем локацию
	provider, err := uc.catalog.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrProviderNotFound) {
			uc.logger.Warn("GenerateSlots: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GenerateSlots: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	if !provider.HasLocation(req.LocationID) {
		uc.logger.Warn("GenerateSlots: location id=%d not found in provider id=%d", req.LocationID, req.ProviderID)
		return nil, ErrLocationNotFound
	}

	// 3. Получаем услугу и проверяем принадлежность провайдеру
	service, err := uc.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			uc.logger.Warn("GenerateSlots: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GenerateSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	if service.ProviderID != req.ProviderID {
		uc.logger.Warn("GenerateSlots: service id=%d does not belong to provider id=%d", req.ServiceID, req.ProviderID)
		return nil, ErrServiceNotFound
	}

	// 4. Получаем конфигурацию с учетом иерархии
	cfg, err := uc.configRepo.GetConfigWithHierarchy(ctx, req.ProviderID, ptr.Ptr(req.LocationID), ptr.Ptr(req.ServiceID))
	if err != nil && !errors.Is(err, configRepo.ErrConfigNotFound) {
		uc.logger.Error("GenerateSlots: failed to get config: %v", err)
		return nil, fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
	}

	if cfg == nil {
		cfg = &domain.SchedulingConfig{
			SlotGranularityMinutes:  domain.DefaultSlotGranularityMinutes,
			BaseCapacity:            domain.DefaultBaseCapacity,
			OverbookingPercent:      domain.DefaultOverbookingPercent,
			AdvanceBookingDays:      domain.DefaultAdvanceBookingDays,
			MinBookingNoticeMinutes: domain.DefaultMinBookingNoticeMinutes,
		}
		uc.logger.Info("GenerateSlots: using default config for provider=%d, location=%d, service=%d",
			req.ProviderID, req.LocationID, req.ServiceID)
	} else {
		uc.logger.Info("GenerateSlots: using config id=%d", cfg.ID)
	}

	// 5. Валидация даты с учетом горизонта бронирования
	if err := validateDate(req.Date, now, cfg.AdvanceBookingDays); err != nil {
		uc.logger.Warn("GenerateSlots: date validation failed: %v", err)
		return nil, err
	}

	// 6. Разрешаем окна доступности на дату
	windows, err := uc.availability.ResolveWindows(ctx, req.ProviderID, req.Date)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to resolve windows: %v", err)
		return nil, fmt.Errorf("%w: failed to resolve windows: %v", ErrInternal, err)
	}

	if len(windows) == 0 {
		uc.logger.Info("GenerateSlots: no availability on %s for provider=%d", req.Date.Format(domain.DateFormat), req.ProviderID)
		return uc.emptyResponse(req), nil
	}

	// 7. Генерируем кандидатов на начало слота
	starts, err := generateStartTimes(windows, service, cfg.SlotGranularityMinutes, req.Date, now, cfg.MinBookingNoticeMinutes)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to generate start times: %v", err)
		return nil, fmt.Errorf("%w: failed to generate start times: %v", ErrInternal, err)
	}

	if len(starts) == 0 {
		return uc.emptyResponse(req), nil
	}

	// 8. Получаем активные бронирования и неистекшие холды на дату
	filter := domain.ProviderBookingsFilter{
		ProviderID:      req.ProviderID,
		StartDate:       &req.Date,
		EndDate:         &req.Date,
		IncludeInactive: false,
	}

	bookings, err := uc.bookingRepo.GetByProviderWithFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	holds, err := uc.holdRepo.GetActiveByProviderDate(ctx, req.ProviderID, req.Date, now)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to get holds: %v", err)
		return nil, fmt.Errorf("%w: failed to get holds: %v", ErrInternal, err)
	}

	// 9. Вычисляем остаток мест для каждого слота
	slots, err := calculateAvailableSpots(starts, service, bookings, holds, cfg)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to calculate availability: %v", err)
		return nil, fmt.Errorf("%w: failed to calculate availability: %v", ErrInternal, err)
	}

	uc.logger.Info("GenerateSlots: generated %d slots for provider=%d, location=%d, service=%d, date=%s",
		len(slots), req.ProviderID, req.LocationID, req.ServiceID, req.Date.Format(domain.DateFormat))

	return &Response{
		Date:       req.Date,
		ProviderID: req.ProviderID,
		LocationID: req.LocationID,
		ServiceID:  req.ServiceID,
		Slots:      slots,
	}, nil
}

func (uc *UseCase) emptyResponse(req *Request) *Response {
	return &Response{
		Date:       req.Date,
		ProviderID: req.ProviderID,
		LocationID: req.LocationID,
		ServiceID:  req.ServiceID,
		Slots:      []domain.AvailableSlot{},
	}
}
