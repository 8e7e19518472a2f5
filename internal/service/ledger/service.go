package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	configRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/config"
	holdRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/hold"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/payments"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Service реестр бронирований: атомарный hold/commit протокол, жизненный
// цикл бронирования и учет занятости интервалов. Единственная точка,
// изменяющая бронирования и холды.
type Service struct {
	bookingRepo  BookingRepository
	holdRepo     HoldRepository
	configRepo   ConfigRepository
	waitlistRepo WaitlistRepository
	auditRepo    AuditRepository
	availability AvailabilityResolver
	policy       PolicyService
	promoter     WaitlistPromoter
	catalog      CatalogClient
	payments     PaymentsClient
	notifier     Notifier
	txManager    TransactionManager
	timeProvider TimeProvider
	holdTTL      time.Duration
	currency     string
	logger       Logger
}

// NewService создает новый экземпляр реестра бронирований
func NewService(
	bookingRepo BookingRepository,
	holdRepo HoldRepository,
	configRepo ConfigRepository,
	waitlistRepo WaitlistRepository,
	auditRepo AuditRepository,
	availability AvailabilityResolver,
	policy PolicyService,
	promoter WaitlistPromoter,
	catalog CatalogClient,
	paymentsClient PaymentsClient,
	notifier Notifier,
	txManager TransactionManager,
	timeProvider TimeProvider,
	holdTTL time.Duration,
	currency string,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		holdRepo:     holdRepo,
		configRepo:   configRepo,
		waitlistRepo: waitlistRepo,
		auditRepo:    auditRepo,
		availability: availability,
		policy:       policy,
		promoter:     promoter,
		catalog:      catalog,
		payments:     paymentsClient,
		notifier:     notifier,
		txManager:    txManager,
		timeProvider: timeProvider,
		holdTTL:      holdTTL,
		currency:     currency,
		logger:       logger,
	}
}

// Hold атомарно резервирует слот на время TTL (первая фаза протокола).
// Проверка и инкремент занятости выполняются одной serializable-транзакцией
// с блокировкой строк дня - не парой read-then-write.
func (s *Service) Hold(ctx context.Context, req HoldRequest) (*domain.SlotHold, error) {
	now := s.timeProvider.Now()

	// 1. Проверяем блокировку клиента за неявки
	blockStatus, err := s.policy.BlockStatus(ctx, req.ClientID)
	if err != nil {
		s.logger.Error("Hold: block status check failed for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: Hold - block status: %v", ErrInternal, err)
	}
	if blockStatus.Blocked {
		s.logger.Warn("Hold: client=%d is blocked until %s", req.ClientID,
			blockStatus.ActiveUntil.Format(time.RFC3339))
		return nil, &BlockedError{ActiveUntil: blockStatus.ActiveUntil, NoShowCount: blockStatus.NoShowCount}
	}

	// 2. Получаем провайдера и услугу из каталога
	provider, service, err := s.fetchCatalog(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !provider.HasLocation(req.LocationID) {
		return nil, fmt.Errorf("%w: location %d does not belong to provider %d",
			ErrInvalidInput, req.LocationID, req.ProviderID)
	}
	if !provider.HasCapability(service.Capability) {
		return nil, fmt.Errorf("%w: provider %d lacks capability %q",
			ErrInvalidInput, req.ProviderID, service.Capability)
	}

	// 3. Загружаем конфигурацию расписания с учетом иерархии
	cfg, err := s.loadConfig(ctx, req.ProviderID, req.LocationID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	// 4. Проверяем горизонты бронирования
	if err := s.validateTiming(req.Date, req.StartTime, cfg, now); err != nil {
		return nil, err
	}

	// 5. Слот должен лежать внутри итоговой доступности дня
	if err := s.validateWithinWindows(ctx, req.ProviderID, req.Date, req.StartTime, service); err != nil {
		return nil, err
	}

	candidate, err := blockedCandidate(req.StartTime, service)
	if err != nil {
		return nil, fmt.Errorf("%w: Hold - candidate range: %v", ErrInvalidInput, err)
	}

	// 6. Атомарный check-and-increment занятости
	var created *domain.SlotHold
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		occupied, limit, err := s.countOccupied(ctx, req.ProviderID, req.Date, candidate, cfg, now)
		if err != nil {
			return err
		}

		if occupied >= limit {
			if cfg.AllowsOverbooking() {
				return ErrOverbookingLimitExceeded
			}
			return ErrSlotUnavailable
		}

		hold := &domain.SlotHold{
			ProviderID:          req.ProviderID,
			ClientID:            req.ClientID,
			LocationID:          req.LocationID,
			ServiceIDs:          []int64{req.ServiceID},
			BookingDate:         req.Date,
			StartTime:           req.StartTime,
			DurationMinutes:     service.DurationMinutes,
			BufferBeforeMinutes: service.BufferBeforeMinutes,
			BufferAfterMinutes:  service.BufferAfterMinutes,
			Overbooked:          occupied >= cfg.BaseCapacity,
			PackageKey:          req.PackageKey,
			ServiceName:         service.Name,
			ServicePrice:        service.Price,
			ExpiresAt:           now.Add(s.holdTTL),
		}

		created, err = s.holdRepo.Create(ctx, hold)
		if err != nil {
			return fmt.Errorf("%w: Hold - create hold: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditHoldCreated,
			Actor:     fmt.Sprintf("client:%d", req.ClientID),
			EntityID:  created.ID,
			After:     fmt.Sprintf("%s %s +%dm", req.Date.Format(domain.DateFormat), req.StartTime, service.DurationMinutes),
		}); err != nil {
			s.logger.Warn("Hold: failed to record audit event for hold=%d: %v", created.ID, err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) || errors.Is(err, ErrOverbookingLimitExceeded) {
			s.logger.Warn("Hold: slot %s %s rejected for client=%d: %v",
				req.Date.Format(domain.DateFormat), req.StartTime, req.ClientID, err)
			return nil, err
		}
		s.logger.Error("Hold: transaction failed for client=%d: %v", req.ClientID, err)
		return nil, err
	}

	s.logger.Info("Hold: created hold=%d for client=%d, provider=%d, %s %s, expires=%s, overbooked=%t",
		created.ID, req.ClientID, req.ProviderID,
		req.Date.Format(domain.DateFormat), req.StartTime,
		created.ExpiresAt.Format(time.RFC3339), created.Overbooked)

	return created, nil
}

// Commit конвертирует холд в бронирование (вторая фаза протокола).
// При instant capture бронирование создается сразу confirmed, при
// предавторизации - pending_payment до подтверждения оплаты.
func (s *Service) Commit(ctx context.Context, holdID int64, req CommitRequest) (*domain.Booking, error) {
	return s.commitHold(ctx, holdID, req, nil)
}

// commitHold общий путь commit. extra выполняется внутри транзакции
// конвертации (подтверждение оффера листа ожидания).
func (s *Service) commitHold(ctx context.Context, holdID int64, req CommitRequest, extra func(ctx context.Context) error) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	hold, err := s.getOwnedHold(ctx, holdID, req.ClientID, now)
	if err != nil {
		return nil, err
	}

	// Авторизуем платеж до транзакции: внешний вызов внутри serializable
	// транзакции растягивал бы блокировки строк дня
	var authID *string
	captured := true
	if hold.ServicePrice > 0 {
		auth, err := s.payments.Authorize(ctx, payments.AuthorizeRequest{
			ClientID:       req.ClientID,
			Amount:         hold.ServicePrice,
			Currency:       s.currency,
			InstantCapture: req.InstantCapture,
			IdempotencyKey: fmt.Sprintf("hold-%d", hold.ID),
		})
		if err != nil {
			if errors.Is(err, payments.ErrPaymentDeclined) {
				s.logger.Warn("Commit: payment declined for hold=%d, client=%d", hold.ID, req.ClientID)
				return nil, ErrPaymentDeclined
			}
			s.logger.Error("Commit: payment authorization failed for hold=%d: %v", hold.ID, err)
			return nil, fmt.Errorf("%w: Commit - authorize payment: %v", ErrInternal, err)
		}
		authID = &auth.AuthID
		captured = auth.Captured
	}

	status := domain.StatusConfirmed
	if authID != nil && !captured {
		status = domain.StatusPendingPayment
	}

	var booking *domain.Booking
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		// Перечитываем холд под блокировкой: параллельный sweeper мог
		// удалить его между проверкой и транзакцией
		locked, err := s.holdRepo.GetByID(ctx, holdID)
		if err != nil {
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				return ErrHoldNotFound
			}
			return fmt.Errorf("%w: Commit - fetch hold: %v", ErrInternal, err)
		}
		if locked.IsExpired(now) {
			return ErrHoldExpired
		}

		if err := s.holdRepo.Delete(ctx, holdID); err != nil {
			return fmt.Errorf("%w: Commit - delete hold: %v", ErrInternal, err)
		}

		booking, err = s.bookingRepo.Create(ctx, &domain.Booking{
			ClientID:            locked.ClientID,
			ProviderID:          locked.ProviderID,
			LocationID:          locked.LocationID,
			ServiceIDs:          locked.ServiceIDs,
			BookingDate:         locked.BookingDate,
			StartTime:           locked.StartTime,
			DurationMinutes:     locked.DurationMinutes,
			BufferBeforeMinutes: locked.BufferBeforeMinutes,
			BufferAfterMinutes:  locked.BufferAfterMinutes,
			Status:              status,
			Overbooked:          locked.Overbooked,
			ServiceName:         locked.ServiceName,
			ServicePrice:        locked.ServicePrice,
			Notes:               req.Notes,
			PaymentAuthID:       authID,
		})
		if err != nil {
			return fmt.Errorf("%w: Commit - create booking: %v", ErrInternal, err)
		}

		if extra != nil {
			if err := extra(ctx); err != nil {
				return err
			}
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditBookingCommitted,
			Actor:     fmt.Sprintf("client:%d", req.ClientID),
			EntityID:  booking.ID,
			Before:    fmt.Sprintf("hold:%d", holdID),
			After:     string(status),
		}); err != nil {
			s.logger.Warn("Commit: failed to record audit event for booking=%d: %v", booking.ID, err)
		}

		return nil
	})
	if err != nil {
		// Деньги уже заморожены - возвращаем при любом сбое конвертации
		if authID != nil {
			if refundErr := s.payments.Refund(ctx, *authID, hold.ServicePrice); refundErr != nil {
				s.logger.Error("Commit: refund after failed commit for hold=%d: %v", holdID, refundErr)
			}
		}
		if errors.Is(err, ErrHoldNotFound) || errors.Is(err, ErrHoldExpired) {
			return nil, err
		}
		s.logger.Error("Commit: transaction failed for hold=%d: %v", holdID, err)
		return nil, err
	}

	s.notifier.Dispatch(notify.Event{
		Type:       notify.EventBookingConfirmed,
		ClientID:   booking.ClientID,
		ProviderID: booking.ProviderID,
		BookingID:  &booking.ID,
		Date:       booking.BookingDate.Format(domain.DateFormat),
		StartTime:  booking.StartTime.String(),
	})

	s.logger.Info("Commit: hold=%d converted to booking=%d, status=%s", holdID, booking.ID, status)

	return booking, nil
}

// Release снимает холд до истечения TTL и передает интервал листу ожидания
func (s *Service) Release(ctx context.Context, holdID, clientID int64) error {
	now := s.timeProvider.Now()

	hold, err := s.getOwnedHold(ctx, holdID, clientID, now)
	if err != nil {
		return err
	}

	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.holdRepo.Delete(ctx, holdID); err != nil {
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				return ErrHoldNotFound
			}
			return fmt.Errorf("%w: Release - delete hold: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditHoldReleased,
			Actor:     fmt.Sprintf("client:%d", clientID),
			EntityID:  holdID,
		}); err != nil {
			s.logger.Warn("Release: failed to record audit event for hold=%d: %v", holdID, err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHoldNotFound) {
			return err
		}
		s.logger.Error("Release: transaction failed for hold=%d: %v", holdID, err)
		return err
	}

	s.logger.Info("Release: hold=%d released by client=%d", holdID, clientID)

	s.promoteReleased(ctx, hold.ProviderID, hold.BookingDate, hold.StartTime, hold.DurationMinutes)

	return nil
}

// getOwnedHold получает холд с проверкой владельца и TTL
func (s *Service) getOwnedHold(ctx context.Context, holdID, clientID int64, now time.Time) (*domain.SlotHold, error) {
	hold, err := s.holdRepo.GetByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, holdRepo.ErrHoldNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("%w: fetch hold: %v", ErrInternal, err)
	}
	if hold.ClientID != clientID {
		return nil, ErrAccessDenied
	}
	if hold.IsExpired(now) {
		return nil, ErrHoldExpired
	}
	return hold, nil
}

// fetchCatalog получает провайдера и услугу, транслируя ошибки каталога
func (s *Service) fetchCatalog(ctx context.Context, providerID, serviceID int64) (*catalogservice.Provider, *catalogservice.Service, error) {
	provider, err := s.catalog.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrProviderNotFound) {
			return nil, nil, ErrProviderNotFound
		}
		s.logger.Error("fetchCatalog: provider=%d: %v", providerID, err)
		return nil, nil, fmt.Errorf("%w: fetch provider: %v", ErrInternal, err)
	}

	service, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			return nil, nil, ErrServiceNotFound
		}
		s.logger.Error("fetchCatalog: service=%d: %v", serviceID, err)
		return nil, nil, fmt.Errorf("%w: fetch service: %v", ErrInternal, err)
	}

	return provider, service, nil
}

// loadConfig загружает конфигурацию расписания, подставляя значения
// по умолчанию при ее отсутствии
func (s *Service) loadConfig(ctx context.Context, providerID, locationID, serviceID int64) (*domain.SchedulingConfig, error) {
	cfg, err := s.configRepo.GetConfigWithHierarchy(ctx, providerID, &locationID, &serviceID)
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return &domain.SchedulingConfig{
				ProviderID:              providerID,
				SlotGranularityMinutes:  domain.DefaultSlotGranularityMinutes,
				BaseCapacity:            domain.DefaultBaseCapacity,
				OverbookingPercent:      domain.DefaultOverbookingPercent,
				AdvanceBookingDays:      domain.DefaultAdvanceBookingDays,
				MinBookingNoticeMinutes: domain.DefaultMinBookingNoticeMinutes,
			}, nil
		}
		s.logger.Error("loadConfig: provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: load config: %v", ErrInternal, err)
	}
	return cfg, nil
}

// validateTiming проверяет минимальное предупреждение и горизонт бронирования
func (s *Service) validateTiming(date time.Time, start types.TimeString, cfg *domain.SchedulingConfig, now time.Time) error {
	minutes, err := start.Minutes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	startsAt := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()).
		Add(time.Duration(minutes) * time.Minute)

	if startsAt.Before(now.Add(time.Duration(cfg.MinBookingNoticeMinutes) * time.Minute)) {
		return ErrTooLateToBook
	}

	if cfg.HasAdvanceBookingLimit() {
		horizon := now.AddDate(0, 0, cfg.AdvanceBookingDays)
		if startsAt.After(horizon) {
			return ErrDateTooFar
		}
	}

	return nil
}

// validateWithinWindows проверяет, что слот лежит внутри итоговой
// доступности: начало не раньше начала окна, конец с буфером не позже конца
func (s *Service) validateWithinWindows(ctx context.Context, providerID int64, date time.Time, start types.TimeString, service *catalogservice.Service) error {
	windows, err := s.availability.ResolveWindows(ctx, providerID, date)
	if err != nil {
		return fmt.Errorf("%w: resolve windows: %v", ErrInternal, err)
	}

	end, err := start.AddMinutes(service.DurationMinutes + service.BufferAfterMinutes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, w := range windows {
		if !start.IsBefore(w.Start) && !w.End.IsBefore(end) {
			return nil
		}
	}

	return ErrSlotUnavailable
}

// countOccupied считает занятость интервала под блокировкой строк дня.
// Должен вызываться только внутри serializable-транзакции.
func (s *Service) countOccupied(ctx context.Context, providerID int64, date time.Time, candidate domain.TimeRange, cfg *domain.SchedulingConfig, now time.Time) (occupied, limit int, err error) {
	bookings, err := s.bookingRepo.GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{
		ProviderID: providerID,
		StartDate:  &date,
		EndDate:    &date,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: fetch day bookings: %v", ErrInternal, err)
	}

	holds, err := s.holdRepo.GetActiveByProviderDate(ctx, providerID, date, now)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: fetch day holds: %v", ErrInternal, err)
	}

	occupied, err = domain.OccupiedCount(candidate, bookings, holds)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: occupancy: %v", ErrInternal, err)
	}

	return occupied, cfg.CapacityLimit(), nil
}

// promoteReleased передает освободившийся интервал листу ожидания.
// Сбой продвижения не отменяет уже зафиксированное освобождение.
func (s *Service) promoteReleased(ctx context.Context, providerID int64, date time.Time, start types.TimeString, durationMinutes int) {
	end, err := start.AddMinutes(durationMinutes)
	if err != nil {
		s.logger.Error("promoteReleased: invalid range for provider=%d: %v", providerID, err)
		return
	}

	released := domain.TimeRange{Start: start, End: end}
	if err := s.promoter.OnRelease(ctx, providerID, date, released, durationMinutes); err != nil {
		s.logger.Error("promoteReleased: promotion failed for provider=%d, date=%s: %v",
			providerID, date.Format(domain.DateFormat), err)
	}
}

// blockedCandidate возвращает интервал кандидата с учетом буферов услуги
func blockedCandidate(start types.TimeString, service *catalogservice.Service) (domain.TimeRange, error) {
	hold := domain.SlotHold{
		StartTime:           start,
		DurationMinutes:     service.DurationMinutes,
		BufferBeforeMinutes: service.BufferBeforeMinutes,
		BufferAfterMinutes:  service.BufferAfterMinutes,
	}
	return hold.BlockedRange()
}
