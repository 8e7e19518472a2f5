package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Service политика отмен и неявок: расчет комиссии за отмену по тарифной
// сетке и временная блокировка клиентов за повторные неявки
type Service struct {
	cancellation domain.CancellationPolicy
	threshold    int           // Количество неявок, после которого клиент блокируется
	lookback     time.Duration // Rolling window подсчета неявок
	blockFor     time.Duration // Длительность блокировки от триггерного события
	noShowRepo   NoShowRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса политик.
// Возвращает ошибку, если тарифная сетка отмен не покрывает [0, ∞).
func NewService(
	cancellation domain.CancellationPolicy,
	noShowThreshold int,
	lookbackDays int,
	blockDays int,
	noShowRepo NoShowRepository,
	timeProvider TimeProvider,
	logger Logger,
) (*Service, error) {
	if err := cancellation.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if noShowThreshold <= 0 {
		return nil, fmt.Errorf("%w: no-show threshold must be positive", ErrInvalidPolicy)
	}

	return &Service{
		cancellation: cancellation,
		threshold:    noShowThreshold,
		lookback:     time.Duration(lookbackDays) * 24 * time.Hour,
		blockFor:     time.Duration(blockDays) * 24 * time.Hour,
		noShowRepo:   noShowRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}, nil
}

// ComputeFee возвращает процент комиссии за отмену бронирования сейчас
func (s *Service) ComputeFee(booking *domain.Booking) (float64, error) {
	startsAt, err := booking.StartsAt()
	if err != nil {
		return 0, fmt.Errorf("%w: ComputeFee - booking start: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()
	hoursBefore := startsAt.Sub(now).Hours()

	fee := s.cancellation.FeePercent(hoursBefore)

	s.logger.Info("ComputeFee: booking=%d, hours_before=%.2f, fee=%.0f%%",
		booking.ID, hoursBefore, fee)

	return fee, nil
}

// RecordNoShow фиксирует неявку клиента
func (s *Service) RecordNoShow(ctx context.Context, clientID, bookingID int64, at time.Time) error {
	event := &domain.NoShowEvent{
		ClientID:   clientID,
		BookingID:  bookingID,
		OccurredAt: at,
	}

	if _, err := s.noShowRepo.Create(ctx, event); err != nil {
		s.logger.Error("RecordNoShow: repository error for client=%d: %v", clientID, err)
		return fmt.Errorf("%w: RecordNoShow - repository error: %v", ErrInternal, err)
	}

	s.logger.Warn("RecordNoShow: client=%d missed booking=%d at %s",
		clientID, bookingID, at.Format(time.RFC3339))

	return nil
}

// BlockStatus возвращает статус блокировки клиента.
// Клиент блокируется, когда число неявок в rolling window достигает порога;
// блокировка действует blockFor от последней неявки: каждая следующая
// неявка при превышенном пороге продлевает блокировку.
func (s *Service) BlockStatus(ctx context.Context, clientID int64) (*domain.BlockStatus, error) {
	now := s.timeProvider.Now()
	since := now.Add(-s.lookback)

	events, err := s.noShowRepo.GetByClientSince(ctx, clientID, since)
	if err != nil {
		s.logger.Error("BlockStatus: repository error for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: BlockStatus - repository error: %v", ErrInternal, err)
	}

	status := &domain.BlockStatus{NoShowCount: len(events)}

	if len(events) < s.threshold {
		return status, nil
	}

	// События отсортированы от новых к старым
	activeUntil := events[0].OccurredAt.Add(s.blockFor)
	if activeUntil.After(now) {
		status.Blocked = true
		status.ActiveUntil = activeUntil
	}

	return status, nil
}

// IsBlocked проверяет, заблокирован ли клиент за повторные неявки
func (s *Service) IsBlocked(ctx context.Context, clientID int64) (bool, error) {
	status, err := s.BlockStatus(ctx, clientID)
	if err != nil {
		return false, err
	}
	return status.Blocked, nil
}
