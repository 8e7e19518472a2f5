package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
)

// Cancel отменяет бронирование с расчетом комиссии по тарифной сетке.
// Возврат по платежу выполняется за вычетом комиссии, освободившийся
// интервал уходит листу ожидания.
func (s *Service) Cancel(ctx context.Context, bookingID int64, req CancelRequest) (*domain.Booking, error) {
	var (
		cancelled *domain.Booking
		fee       float64
	)

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.getBookingLocked(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.IsTerminal() {
			return fmt.Errorf("%w: booking %d is already %s", ErrPolicyViolation, bookingID, booking.Status)
		}
		if !booking.CanBeCancelled() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, domain.StatusCancelled)
		}
		if req.CancelledBy == domain.CancelledByClient && booking.ClientID != req.ActorID {
			return ErrAccessDenied
		}

		fee, err = s.policy.ComputeFee(booking)
		if err != nil {
			return err
		}

		if err := s.bookingRepo.Cancel(ctx, bookingID, req.CancelledBy, req.Reason, fee); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditBookingCancelled,
			Actor:     fmt.Sprintf("%s:%d", req.CancelledBy, req.ActorID),
			EntityID:  bookingID,
			Before:    string(booking.Status),
			After:     string(domain.StatusCancelled),
		}); err != nil {
			s.logger.Warn("Cancel: failed to record audit event for booking=%d: %v", bookingID, err)
		}

		if fee > 0 {
			if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
				EventType: domain.AuditFeeApplied,
				Actor:     "system",
				EntityID:  bookingID,
				After:     fmt.Sprintf("%.0f%%", fee),
			}); err != nil {
				s.logger.Warn("Cancel: failed to record fee audit event for booking=%d: %v", bookingID, err)
			}
		}

		cancelled = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrPolicyViolation) ||
			errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrAccessDenied) {
			return nil, err
		}
		s.logger.Error("Cancel: transaction failed for booking=%d: %v", bookingID, err)
		return nil, err
	}

	// Возврат за вычетом комиссии. Отмена уже зафиксирована: сбой возврата
	// логируется для ручного разбора, но статус не откатывается
	if cancelled.PaymentAuthID != nil && cancelled.ServicePrice > 0 {
		refund := cancelled.ServicePrice * (100 - fee) / 100
		if refund > 0 {
			if err := s.payments.Refund(ctx, *cancelled.PaymentAuthID, refund); err != nil {
				s.logger.Error("Cancel: refund failed for booking=%d, auth=%s: %v",
					bookingID, *cancelled.PaymentAuthID, err)
			}
		}
	}

	s.notifier.Dispatch(notify.Event{
		Type:       notify.EventBookingCancelled,
		ClientID:   cancelled.ClientID,
		ProviderID: cancelled.ProviderID,
		BookingID:  &cancelled.ID,
		Date:       cancelled.BookingDate.Format(domain.DateFormat),
		StartTime:  cancelled.StartTime.String(),
		Message:    fmt.Sprintf("cancellation fee %.0f%%", fee),
	})

	s.logger.Info("Cancel: booking=%d cancelled by %s:%d, fee=%.0f%%",
		bookingID, req.CancelledBy, req.ActorID, fee)

	s.promoteReleased(ctx, cancelled.ProviderID, cancelled.BookingDate,
		cancelled.StartTime, cancelled.DurationMinutes)

	cancelled.Status = domain.StatusCancelled
	cancelled.CancellationFee = &fee

	return cancelled, nil
}

// MarkNoShow фиксирует неявку клиента. Событие попадает в rolling window
// policy-движка и может повлечь временную блокировку клиента.
func (s *Service) MarkNoShow(ctx context.Context, bookingID int64, actor string) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	var marked *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.getBookingLocked(ctx, bookingID)
		if err != nil {
			return err
		}

		if err := domain.ValidateTransition(booking.Status, domain.StatusNoShow); err != nil {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, domain.StatusNoShow)
		}

		if err := s.bookingRepo.MarkNoShow(ctx, bookingID, now); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: MarkNoShow - repository error: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditNoShowMarked,
			Actor:     actor,
			EntityID:  bookingID,
			Before:    string(booking.Status),
			After:     string(domain.StatusNoShow),
		}); err != nil {
			s.logger.Warn("MarkNoShow: failed to record audit event for booking=%d: %v", bookingID, err)
		}

		marked = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		s.logger.Error("MarkNoShow: transaction failed for booking=%d: %v", bookingID, err)
		return nil, err
	}

	if err := s.policy.RecordNoShow(ctx, marked.ClientID, bookingID, now); err != nil {
		s.logger.Error("MarkNoShow: failed to record no-show for client=%d: %v", marked.ClientID, err)
	} else if blockStatus, err := s.policy.BlockStatus(ctx, marked.ClientID); err == nil && blockStatus.Blocked {
		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditClientBlocked,
			Actor:     "system",
			EntityID:  marked.ClientID,
			After:     blockStatus.ActiveUntil.Format(time.RFC3339),
		}); err != nil {
			s.logger.Warn("MarkNoShow: failed to record block audit event for client=%d: %v", marked.ClientID, err)
		}
		s.logger.Warn("MarkNoShow: client=%d blocked until %s after %d no-shows",
			marked.ClientID, blockStatus.ActiveUntil.Format(time.RFC3339), blockStatus.NoShowCount)
	}

	s.notifier.Dispatch(notify.Event{
		Type:       notify.EventBookingNoShow,
		ClientID:   marked.ClientID,
		ProviderID: marked.ProviderID,
		BookingID:  &marked.ID,
		Date:       marked.BookingDate.Format(domain.DateFormat),
		StartTime:  marked.StartTime.String(),
	})

	s.logger.Info("MarkNoShow: booking=%d marked no_show by %s", bookingID, actor)

	s.promoteReleased(ctx, marked.ProviderID, marked.BookingDate,
		marked.StartTime, marked.DurationMinutes)

	marked.Status = domain.StatusNoShow

	return marked, nil
}

// AdvanceStatus выполняет переход бронирования по таблице переходов.
// Недопустимые переходы отклоняются с ErrInvalidTransition.
func (s *Service) AdvanceStatus(ctx context.Context, bookingID int64, to domain.BookingStatus, actor string) (*domain.Booking, error) {
	var advanced *domain.Booking

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.getBookingLocked(ctx, bookingID)
		if err != nil {
			return err
		}

		if err := domain.ValidateTransition(booking.Status, to); err != nil {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, to)
		}

		if err := s.bookingRepo.UpdateStatus(ctx, bookingID, to); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: AdvanceStatus - repository error: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditStatusChanged,
			Actor:     actor,
			EntityID:  bookingID,
			Before:    string(booking.Status),
			After:     string(to),
		}); err != nil {
			s.logger.Warn("AdvanceStatus: failed to record audit event for booking=%d: %v", bookingID, err)
		}

		advanced = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		s.logger.Error("AdvanceStatus: transaction failed for booking=%d: %v", bookingID, err)
		return nil, err
	}

	// Переход pending_payment -> confirmed означает подтверждение оплаты:
	// списываем предавторизованную сумму
	if advanced.Status == domain.StatusPendingPayment && to == domain.StatusConfirmed &&
		advanced.PaymentAuthID != nil && advanced.ServicePrice > 0 {
		if err := s.payments.Capture(ctx, *advanced.PaymentAuthID, advanced.ServicePrice); err != nil {
			s.logger.Error("AdvanceStatus: capture failed for booking=%d, auth=%s: %v",
				bookingID, *advanced.PaymentAuthID, err)
		}
	}

	s.logger.Info("AdvanceStatus: booking=%d %s -> %s by %s", bookingID, advanced.Status, to, actor)

	advanced.Status = to

	return advanced, nil
}

// getBookingLocked получает бронирование под блокировкой строки
func (s *Service) getBookingLocked(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: fetch booking: %v", ErrInternal, err)
	}
	return booking, nil
}
