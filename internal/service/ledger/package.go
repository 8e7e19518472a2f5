package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/payments"
)

// CommitPackage конвертирует все холды пакетной резервации в одно
// бронирование с упорядоченным списком услуг и консолидированной
// длительностью. Пакет либо фиксируется целиком, либо не фиксируется вовсе.
func (s *Service) CommitPackage(ctx context.Context, packageKey string, req CommitRequest) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	holds, err := s.holdRepo.GetByPackageKey(ctx, packageKey)
	if err != nil {
		s.logger.Error("CommitPackage: fetch holds for key=%s: %v", packageKey, err)
		return nil, fmt.Errorf("%w: CommitPackage - fetch holds: %v", ErrInternal, err)
	}
	if len(holds) == 0 {
		return nil, ErrHoldNotFound
	}

	var totalPrice float64
	names := make([]string, 0, len(holds))
	for _, h := range holds {
		if h.ClientID != req.ClientID {
			return nil, ErrAccessDenied
		}
		if h.IsExpired(now) {
			return nil, ErrHoldExpired
		}
		totalPrice += h.ServicePrice
		names = append(names, h.ServiceName)
	}

	var authID *string
	captured := true
	if totalPrice > 0 {
		auth, err := s.payments.Authorize(ctx, payments.AuthorizeRequest{
			ClientID:       req.ClientID,
			Amount:         totalPrice,
			Currency:       s.currency,
			InstantCapture: req.InstantCapture,
			IdempotencyKey: fmt.Sprintf("package-%s", packageKey),
		})
		if err != nil {
			if errors.Is(err, payments.ErrPaymentDeclined) {
				s.logger.Warn("CommitPackage: payment declined for key=%s, client=%d", packageKey, req.ClientID)
				return nil, ErrPaymentDeclined
			}
			s.logger.Error("CommitPackage: authorization failed for key=%s: %v", packageKey, err)
			return nil, fmt.Errorf("%w: CommitPackage - authorize payment: %v", ErrInternal, err)
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
		// Перечитываем под блокировкой: часть холдов могла истечь
		// и быть удалена параллельным sweeper
		locked, err := s.holdRepo.GetByPackageKey(ctx, packageKey)
		if err != nil {
			return fmt.Errorf("%w: CommitPackage - fetch holds: %v", ErrInternal, err)
		}
		if len(locked) != len(holds) {
			return ErrHoldExpired
		}
		for _, h := range locked {
			if h.IsExpired(now) {
				return ErrHoldExpired
			}
		}

		if err := s.holdRepo.DeleteByPackageKey(ctx, packageKey); err != nil {
			return fmt.Errorf("%w: CommitPackage - delete holds: %v", ErrInternal, err)
		}

		first, last := locked[0], locked[len(locked)-1]

		lastEnd, err := last.EndTime()
		if err != nil {
			return fmt.Errorf("%w: CommitPackage - package span: %v", ErrInternal, err)
		}
		span, err := lastEnd.Sub(first.StartTime)
		if err != nil {
			return fmt.Errorf("%w: CommitPackage - package span: %v", ErrInternal, err)
		}

		serviceIDs := make([]int64, 0, len(locked))
		overbooked := false
		for _, h := range locked {
			serviceIDs = append(serviceIDs, h.ServiceIDs...)
			overbooked = overbooked || h.Overbooked
		}

		booking, err = s.bookingRepo.Create(ctx, &domain.Booking{
			ClientID:            req.ClientID,
			ProviderID:          first.ProviderID,
			LocationID:          first.LocationID,
			ServiceIDs:          serviceIDs,
			BookingDate:         first.BookingDate,
			StartTime:           first.StartTime,
			DurationMinutes:     span,
			BufferBeforeMinutes: first.BufferBeforeMinutes,
			BufferAfterMinutes:  last.BufferAfterMinutes,
			Status:              status,
			Overbooked:          overbooked,
			ServiceName:         strings.Join(names, " + "),
			ServicePrice:        totalPrice,
			Notes:               req.Notes,
			PaymentAuthID:       authID,
		})
		if err != nil {
			return fmt.Errorf("%w: CommitPackage - create booking: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditBookingCommitted,
			Actor:     fmt.Sprintf("client:%d", req.ClientID),
			EntityID:  booking.ID,
			Before:    fmt.Sprintf("package:%s", packageKey),
			After:     string(status),
		}); err != nil {
			s.logger.Warn("CommitPackage: failed to record audit event for booking=%d: %v", booking.ID, err)
		}

		return nil
	})
	if err != nil {
		if authID != nil {
			if refundErr := s.payments.Refund(ctx, *authID, totalPrice); refundErr != nil {
				s.logger.Error("CommitPackage: refund after failed commit for key=%s: %v", packageKey, refundErr)
			}
		}
		if errors.Is(err, ErrHoldExpired) {
			return nil, err
		}
		s.logger.Error("CommitPackage: transaction failed for key=%s: %v", packageKey, err)
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

	s.logger.Info("CommitPackage: key=%s converted to booking=%d (%d services), status=%s",
		packageKey, booking.ID, len(booking.ServiceIDs), status)

	return booking, nil
}

// ReleasePackage снимает все холды пакетной резервации.
// Вызывается при сбое сбора пакета и не считает отсутствие холдов ошибкой.
func (s *Service) ReleasePackage(ctx context.Context, packageKey string) error {
	var released []*domain.SlotHold

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		holds, err := s.holdRepo.GetByPackageKey(ctx, packageKey)
		if err != nil {
			return fmt.Errorf("%w: ReleasePackage - fetch holds: %v", ErrInternal, err)
		}
		if len(holds) == 0 {
			return nil
		}

		if err := s.holdRepo.DeleteByPackageKey(ctx, packageKey); err != nil {
			return fmt.Errorf("%w: ReleasePackage - delete holds: %v", ErrInternal, err)
		}

		for _, h := range holds {
			if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
				EventType: domain.AuditHoldReleased,
				Actor:     "system",
				EntityID:  h.ID,
				Before:    fmt.Sprintf("package:%s", packageKey),
			}); err != nil {
				s.logger.Warn("ReleasePackage: failed to record audit event for hold=%d: %v", h.ID, err)
			}
		}

		released = holds
		return nil
	})
	if err != nil {
		s.logger.Error("ReleasePackage: failed for key=%s: %v", packageKey, err)
		return err
	}

	s.logger.Info("ReleasePackage: key=%s, released %d holds", packageKey, len(released))

	return nil
}
