package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
)

// Service менеджер листа ожидания: очередь FIFO на занятые интервалы
// и выдача офферов при освобождении ёмкости. Ёмкость лист ожидания не
// выдает никогда - только приоритет попытки; источником истины остается
// hold/commit протокол.
type Service struct {
	repo         WaitlistRepository
	auditRepo    AuditRepository
	notifier     Notifier
	txManager    TransactionManager
	timeProvider TimeProvider
	offerTTL     time.Duration
	logger       Logger
}

// NewService создает новый экземпляр менеджера листа ожидания
func NewService(
	repo WaitlistRepository,
	auditRepo AuditRepository,
	notifier Notifier,
	txManager TransactionManager,
	timeProvider TimeProvider,
	offerTTL time.Duration,
	logger Logger,
) *Service {
	return &Service{
		repo:         repo,
		auditRepo:    auditRepo,
		notifier:     notifier,
		txManager:    txManager,
		timeProvider: timeProvider,
		offerTTL:     offerTTL,
		logger:       logger,
	}
}

// Join ставит клиента в очередь на желаемое окно
func (s *Service) Join(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	if !entry.DesiredRange().IsValid() {
		return nil, fmt.Errorf("%w: desired window start must be before end", ErrInvalidInput)
	}

	entry.Status = domain.WaitlistWaiting

	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		s.logger.Error("Join: repository error for client=%d: %v", entry.ClientID, err)
		return nil, fmt.Errorf("%w: Join - repository error: %v", ErrInternal, err)
	}

	if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
		EventType: domain.AuditWaitlistJoined,
		Actor:     fmt.Sprintf("client:%d", created.ClientID),
		EntityID:  created.ID,
		After:     string(domain.WaitlistWaiting),
	}); err != nil {
		s.logger.Warn("Join: failed to record audit event for entry=%d: %v", created.ID, err)
	}

	s.logger.Info("Join: client=%d queued for provider=%d on %s [%s-%s], entry=%d",
		created.ClientID, created.ProviderID,
		created.DesiredDate.Format(domain.DateFormat),
		created.WindowStart, created.WindowEnd, created.ID)

	return created, nil
}

// GetEntry возвращает запись листа ожидания
func (s *Service) GetEntry(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("%w: GetEntry - repository error: %v", ErrInternal, err)
	}
	return entry, nil
}

// OnRelease вызывается после освобождения ёмкости провайдера на дату.
// Выбирает старейшую waiting-запись, чье желаемое окно пересекается
// с освобожденным интервалом, и выдает оффер только ей.
// Идемпотентен: на повторный вызов без подходящих записей не делает ничего.
// Вызывается вне транзакции освобождения.
func (s *Service) OnRelease(ctx context.Context, providerID int64, date time.Time, released domain.TimeRange, durationMinutes int) error {
	now := s.timeProvider.Now()

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		entries, err := s.repo.GetWaitingByProviderDate(ctx, providerID, date)
		if err != nil {
			return fmt.Errorf("fetch waiting entries: %v", err)
		}

		for _, entry := range entries {
			if !entry.DesiredRange().Overlaps(released) {
				continue
			}

			expiresAt := now.Add(s.offerTTL)
			if err := s.repo.MarkOffered(ctx, entry.ID, released.Start, durationMinutes, now, expiresAt); err != nil {
				// Запись перехвачена параллельным освобождением - берем следующую
				if errors.Is(err, waitlistRepo.ErrStatusConflict) {
					continue
				}
				return fmt.Errorf("mark offered entry=%d: %v", entry.ID, err)
			}

			if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
				EventType: domain.AuditWaitlistOffered,
				Actor:     "system",
				EntityID:  entry.ID,
				Before:    string(domain.WaitlistWaiting),
				After:     string(domain.WaitlistOffered),
			}); err != nil {
				s.logger.Warn("OnRelease: failed to record audit event for entry=%d: %v", entry.ID, err)
			}

			s.notifier.Dispatch(notify.Event{
				Type:       notify.EventWaitlistOffer,
				ClientID:   entry.ClientID,
				ProviderID: entry.ProviderID,
				EntryID:    &entry.ID,
				Date:       date.Format(domain.DateFormat),
				StartTime:  released.Start.String(),
				Deadline:   &expiresAt,
			})

			s.logger.Info("OnRelease: offered %s on %s to client=%d, entry=%d, expires=%s",
				released.Start, date.Format(domain.DateFormat),
				entry.ClientID, entry.ID, expiresAt.Format(time.RFC3339))

			return nil
		}

		s.logger.Info("OnRelease: no waiting entries match provider=%d, date=%s, range=[%s-%s]",
			providerID, date.Format(domain.DateFormat), released.Start, released.End)

		return nil
	})
	if err != nil {
		s.logger.Error("OnRelease: failed for provider=%d: %v", providerID, err)
		return fmt.Errorf("%w: OnRelease: %v", ErrInternal, err)
	}

	return nil
}

// ExpireOffers отмечает просроченные офферы и передает освободившиеся
// интервалы следующим записям очереди. Возвращает число истекших офферов.
// Идемпотентен: запись, обработанную параллельным вызовом, пропускает.
func (s *Service) ExpireOffers(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()

	expired, err := s.repo.GetExpiredOffers(ctx, now)
	if err != nil {
		s.logger.Error("ExpireOffers: failed to fetch expired offers: %v", err)
		return 0, fmt.Errorf("%w: ExpireOffers - fetch: %v", ErrInternal, err)
	}

	count := 0
	for _, entry := range expired {
		err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
			return s.repo.MarkExpired(ctx, entry.ID)
		})
		if err != nil {
			// Оффер уже подтвержден или истек параллельно
			if errors.Is(err, waitlistRepo.ErrStatusConflict) {
				continue
			}
			s.logger.Error("ExpireOffers: failed to expire entry=%d: %v", entry.ID, err)
			return count, fmt.Errorf("%w: ExpireOffers - mark expired: %v", ErrInternal, err)
		}
		count++

		if err := s.auditRepo.Record(ctx, &domain.AuditEvent{
			EventType: domain.AuditWaitlistExpired,
			Actor:     "system",
			EntityID:  entry.ID,
			Before:    string(domain.WaitlistOffered),
			After:     string(domain.WaitlistExpired),
		}); err != nil {
			s.logger.Warn("ExpireOffers: failed to record audit event for entry=%d: %v", entry.ID, err)
		}

		s.notifier.Dispatch(notify.Event{
			Type:       notify.EventOfferExpired,
			ClientID:   entry.ClientID,
			ProviderID: entry.ProviderID,
			EntryID:    &entry.ID,
			Date:       entry.DesiredDate.Format(domain.DateFormat),
		})

		s.logger.Info("ExpireOffers: offer for entry=%d expired, re-offering slot", entry.ID)

		// Невостребованный интервал уходит следующему в очереди
		if entry.OfferStart != nil && entry.OfferDuration != nil {
			end, err := entry.OfferStart.AddMinutes(*entry.OfferDuration)
			if err != nil {
				s.logger.Error("ExpireOffers: invalid offer range for entry=%d: %v", entry.ID, err)
				continue
			}
			released := domain.TimeRange{Start: *entry.OfferStart, End: end}
			if err := s.OnRelease(ctx, entry.ProviderID, entry.DesiredDate, released, *entry.OfferDuration); err != nil {
				s.logger.Error("ExpireOffers: re-offer failed for entry=%d: %v", entry.ID, err)
			}
		}
	}

	return count, nil
}
