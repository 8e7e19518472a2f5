package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
)

// ConfirmOffer подтверждает оффер листа ожидания через обычный hold/commit
// протокол. Лист ожидания не выдает ёмкость сам: при гонке двух
// подтверждений одного оффера побеждает ровно одно - условное обновление
// статуса записи выполняется в транзакции конвертации холда.
func (s *Service) ConfirmOffer(ctx context.Context, entryID int64, req CommitRequest) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	entry, err := s.waitlistRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			return nil, ErrWaitlistEntryNotFound
		}
		s.logger.Error("ConfirmOffer: fetch entry=%d: %v", entryID, err)
		return nil, fmt.Errorf("%w: ConfirmOffer - fetch entry: %v", ErrInternal, err)
	}

	if entry.ClientID != req.ClientID {
		return nil, ErrAccessDenied
	}
	if entry.Status != domain.WaitlistOffered {
		return nil, ErrOfferConflict
	}
	if entry.IsOfferExpired(now) {
		// Просроченный оффер добивается на месте, не дожидаясь sweeper
		if err := s.waitlistRepo.MarkExpired(ctx, entryID); err != nil &&
			!errors.Is(err, waitlistRepo.ErrStatusConflict) {
			s.logger.Warn("ConfirmOffer: failed to expire stale offer entry=%d: %v", entryID, err)
		}
		return nil, ErrOfferExpired
	}
	if entry.OfferStart == nil {
		return nil, fmt.Errorf("%w: offer has no slot", ErrInternal)
	}

	hold, err := s.Hold(ctx, HoldRequest{
		ClientID:   entry.ClientID,
		ProviderID: entry.ProviderID,
		LocationID: entry.LocationID,
		ServiceID:  entry.ServiceID,
		Date:       entry.DesiredDate,
		StartTime:  *entry.OfferStart,
	})
	if err != nil {
		return nil, err
	}

	booking, err := s.commitHold(ctx, hold.ID, req, func(ctx context.Context) error {
		// Единственный победитель: проигравший конкурент получает
		// конфликт статуса и откат всей конвертации
		if err := s.waitlistRepo.MarkConfirmed(ctx, entryID); err != nil {
			if errors.Is(err, waitlistRepo.ErrStatusConflict) {
				return ErrOfferConflict
			}
			return fmt.Errorf("%w: confirm entry: %v", ErrInternal, err)
		}

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditWaitlistConfirm,
			Actor:     fmt.Sprintf("client:%d", entry.ClientID),
			EntityID:  entryID,
			Before:    string(domain.WaitlistOffered),
			After:     string(domain.WaitlistConfirmed),
		}); err != nil {
			s.logger.Warn("ConfirmOffer: failed to record audit event for entry=%d: %v", entryID, err)
		}

		return nil
	})
	if err != nil {
		// Холд не должен пережить неудачное подтверждение
		if delErr := s.holdRepo.Delete(ctx, hold.ID); delErr != nil {
			s.logger.Warn("ConfirmOffer: failed to release hold=%d after error: %v", hold.ID, delErr)
		}
		if errors.Is(err, ErrOfferConflict) {
			s.logger.Warn("ConfirmOffer: entry=%d lost confirmation race", entryID)
		}
		return nil, err
	}

	s.logger.Info("ConfirmOffer: entry=%d confirmed as booking=%d", entryID, booking.ID)

	return booking, nil
}
