package generate_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// generateStartTimes генерирует кандидатов на начало слота внутри окон доступности.
// Шаг генерации равен slotGranularityMinutes; при нуле шаг равен длительности услуги.
// Кандидат попадает в результат, только если услуга вместе с буфером после
// целиком помещается в окно.
func generateStartTimes(
	windows []domain.TimeRange,
	service *catalogservice.Service,
	slotGranularityMinutes int,
	requestDate time.Time,
	now time.Time,
	minBookingNoticeMinutes int,
) ([]types.TimeString, error) {
	if isDateInPast(requestDate, now) {
		return []types.TimeString{}, nil
	}

	step := slotGranularityMinutes
	if step == 0 {
		step = service.DurationMinutes
	}

	span := service.DurationMinutes + service.BufferAfterMinutes

	allStarts := make([]types.TimeString, 0)

	for _, w := range windows {
		current := w.Start

		for {
			end, err := current.AddMinutes(span)
			if err != nil {
				// Слот вышел за границу суток
				break
			}

			if w.End.IsBefore(end) {
				break
			}

			allStarts = append(allStarts, current)

			next, err := current.AddMinutes(step)
			if err != nil {
				break
			}
			current = next
		}
	}

	// Для будущих дат фильтрация по времени не нужна
	if !isSameDay(requestDate, now) {
		return allStarts, nil
	}

	// Для сегодняшней даты отбрасываем слоты, начинающиеся раньше,
	// чем now + минимальное предупреждение
	currentTime := types.NewTimeString(now)
	minAllowedTime, err := currentTime.AddMinutes(minBookingNoticeMinutes)
	if err != nil {
		return nil, err
	}

	availableStarts := make([]types.TimeString, 0)
	for _, start := range allStarts {
		if !start.IsBefore(minAllowedTime) {
			availableStarts = append(availableStarts, start)
		}
	}

	return availableStarts, nil
}

// calculateAvailableSpots вычисляет остаток мест для каждого кандидата.
// Занятость считается по заблокированному интервалу кандидата (услуга плюс
// буферы) против активных бронирований и неистекших холдов.
func calculateAvailableSpots(
	starts []types.TimeString,
	service *catalogservice.Service,
	bookings []*domain.Booking,
	holds []*domain.SlotHold,
	cfg *domain.SchedulingConfig,
) ([]domain.AvailableSlot, error) {
	limit := cfg.CapacityLimit()
	result := make([]domain.AvailableSlot, 0, len(starts))

	for _, start := range starts {
		candidate := domain.SlotHold{
			StartTime:           start,
			DurationMinutes:     service.DurationMinutes,
			BufferBeforeMinutes: service.BufferBeforeMinutes,
			BufferAfterMinutes:  service.BufferAfterMinutes,
		}

		blocked, err := candidate.BlockedRange()
		if err != nil {
			return nil, err
		}

		occupied, err := domain.OccupiedCount(blocked, bookings, holds)
		if err != nil {
			return nil, err
		}

		availableSpots := limit - occupied
		if availableSpots < 0 {
			availableSpots = 0
		}

		result = append(result, domain.AvailableSlot{
			StartTime:       start,
			DurationMinutes: service.DurationMinutes,
			AvailableSpots:  availableSpots,
			TotalSpots:      limit,
		})
	}

	return result, nil
}
