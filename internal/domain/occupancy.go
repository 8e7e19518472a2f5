package domain

// OccupiedCount возвращает занятость интервала candidate для провайдера.
// Учитываются активные бронирования и холды, чьи интервалы с буферами
// пересекаются с кандидатом. Касание границ пересечением не считается.
// Истекшие холды должны быть отфильтрованы вызывающей стороной.
func OccupiedCount(candidate TimeRange, bookings []*Booking, holds []*SlotHold) (int, error) {
	count := 0

	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		blocked, err := b.BlockedRange()
		if err != nil {
			return 0, err
		}
		if blocked.Overlaps(candidate) {
			count++
		}
	}

	for _, h := range holds {
		blocked, err := h.BlockedRange()
		if err != nil {
			return 0, err
		}
		if blocked.Overlaps(candidate) {
			count++
		}
	}

	return count, nil
}
