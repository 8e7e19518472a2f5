package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Service сервис расписания провайдера: повторяющиеся рабочие окна,
// исключения на конкретные даты и вычисление итоговых интервалов дня
type Service struct {
	repo      AvailabilityRepository
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса расписания
func NewService(repo AvailabilityRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// ResolveWindows вычисляет итоговые интервалы доступности провайдера на дату:
// повторяющиеся окна дня недели минус blocked-исключения (блок внутри окна
// разрезает его надвое) плюс added-исключения. Результат отсортирован по
// возрастанию и не содержит пересечений.
func (s *Service) ResolveWindows(ctx context.Context, providerID int64, date time.Time) ([]domain.TimeRange, error) {
	windows, err := s.repo.GetWindowsByWeekday(ctx, providerID, date.Weekday())
	if err != nil {
		s.logger.Error("ResolveWindows: failed to fetch windows for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ResolveWindows - fetch windows: %v", ErrInternal, err)
	}

	exceptions, err := s.repo.GetExceptionsByDate(ctx, providerID, date)
	if err != nil {
		s.logger.Error("ResolveWindows: failed to fetch exceptions for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ResolveWindows - fetch exceptions: %v", ErrInternal, err)
	}

	ranges := make([]domain.TimeRange, 0, len(windows))
	for _, w := range windows {
		ranges = append(ranges, w.Range())
	}

	// 1. Вычитаем blocked-исключения из повторяющихся окон
	for _, e := range exceptions {
		if e.Kind == domain.ExceptionBlocked {
			ranges = subtractRange(ranges, e.Range())
		}
	}

	// 2. Добавляем added-исключения
	for _, e := range exceptions {
		if e.Kind == domain.ExceptionAdded {
			ranges = append(ranges, e.Range())
		}
	}

	resolved := mergeRanges(ranges)

	s.logger.Info("ResolveWindows: provider=%d, date=%s, windows=%d",
		providerID, date.Format(domain.DateFormat), len(resolved))

	return resolved, nil
}

// GetWindows возвращает все повторяющиеся окна провайдера
func (s *Service) GetWindows(ctx context.Context, providerID int64) ([]*domain.AvailabilityWindow, error) {
	windows, err := s.repo.GetWindowsByProvider(ctx, providerID)
	if err != nil {
		s.logger.Error("GetWindows: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetWindows - repository error: %v", ErrInternal, err)
	}
	return windows, nil
}

// ReplaceWindows заменяет все повторяющиеся окна провайдера.
// Пересекающиеся окна одного дня недели отклоняются на записи,
// а не склеиваются молча.
func (s *Service) ReplaceWindows(ctx context.Context, providerID int64, windows []*domain.AvailabilityWindow) error {
	if err := validateWindows(windows); err != nil {
		s.logger.Warn("ReplaceWindows: validation failed for provider=%d: %v", providerID, err)
		return err
	}

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		return s.repo.ReplaceWindows(ctx, providerID, windows)
	})
	if err != nil {
		s.logger.Error("ReplaceWindows: failed for provider=%d: %v", providerID, err)
		return fmt.Errorf("%w: ReplaceWindows - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ReplaceWindows: provider=%d now has %d windows", providerID, len(windows))
	return nil
}

// AddException добавляет исключение из расписания на конкретную дату
func (s *Service) AddException(ctx context.Context, e *domain.AvailabilityException) (*domain.AvailabilityException, error) {
	if !e.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidException, e.Kind)
	}
	if (e.StartTime == nil) != (e.EndTime == nil) {
		return nil, fmt.Errorf("%w: start and end must be set together", ErrInvalidException)
	}
	if e.StartTime != nil && !e.StartTime.IsBefore(*e.EndTime) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidException)
	}
	// Added-исключение без времени не имеет смысла - добавлять нечего
	if e.Kind == domain.ExceptionAdded && e.StartTime == nil {
		return nil, fmt.Errorf("%w: added exception requires start and end", ErrInvalidException)
	}

	created, err := s.repo.CreateException(ctx, e)
	if err != nil {
		s.logger.Error("AddException: repository error for provider=%d: %v", e.ProviderID, err)
		return nil, fmt.Errorf("%w: AddException - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("AddException: provider=%d, date=%s, kind=%s",
		e.ProviderID, e.Date.Format(domain.DateFormat), e.Kind)

	return created, nil
}

// validateWindows проверяет корректность окон и отсутствие пересечений
// внутри каждого дня недели
func validateWindows(windows []*domain.AvailabilityWindow) error {
	for _, w := range windows {
		if err := w.StartTime.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		if err := w.EndTime.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		if !w.Range().IsValid() {
			return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, w.StartTime, w.EndTime)
		}
		if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidWindow, w.Weekday)
		}
	}

	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			if windows[i].Weekday != windows[j].Weekday {
				continue
			}
			if windows[i].Range().Overlaps(windows[j].Range()) {
				return fmt.Errorf("%w: %s-%s and %s-%s on weekday %d",
					ErrOverlappingWindows,
					windows[i].StartTime, windows[i].EndTime,
					windows[j].StartTime, windows[j].EndTime,
					windows[i].Weekday)
			}
		}
	}

	return nil
}
