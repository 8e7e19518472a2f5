package ledger

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ExpireHolds удаляет холды с истекшим TTL и возвращает их число.
// Незафиксированный холд всегда разрешается в сторону освобождения
// емкости, а не ее утечки. Идемпотентен: повторный вызов без истекших
// холдов не делает ничего.
func (s *Service) ExpireHolds(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()

	var expired []*domain.SlotHold
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		holds, err := s.holdRepo.DeleteExpired(ctx, now)
		if err != nil {
			return fmt.Errorf("%w: ExpireHolds - delete expired: %v", ErrInternal, err)
		}

		for _, h := range holds {
			if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
				EventType: domain.AuditHoldExpired,
				Actor:     "system",
				EntityID:  h.ID,
			}); err != nil {
				s.logger.Warn("ExpireHolds: failed to record audit event for hold=%d: %v", h.ID, err)
			}
		}

		expired = holds
		return nil
	})
	if err != nil {
		s.logger.Error("ExpireHolds: transaction failed: %v", err)
		return 0, err
	}

	if len(expired) == 0 {
		return 0, nil
	}

	// Освободившиеся интервалы уходят листу ожидания
	for _, h := range expired {
		s.promoteReleased(ctx, h.ProviderID, h.BookingDate, h.StartTime, h.DurationMinutes)
	}

	s.logger.Info("ExpireHolds: released %d expired holds", len(expired))

	return len(expired), nil
}
