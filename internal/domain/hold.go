package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// SlotHold временная резервация емкости до подтверждения бронирования.
// Холд учитывается в занятости наравне с активными бронированиями, пока
// не истек его TTL. Истекший холд емкости не потребляет и подлежит
// удалению sweeper-ом.
type SlotHold struct {
	ID         int64
	ProviderID int64
	ClientID   int64
	LocationID int64
	ServiceIDs []int64

	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int

	BufferBeforeMinutes int
	BufferAfterMinutes  int

	// Overbooked - холд выдан сверх базовой емкости в пределах
	// overbooking-допуска
	Overbooked bool

	// PackageKey группирует холды одной пакетной резервации
	PackageKey *string

	// Denormalized data, переносится в бронирование при commit
	ServiceName  string
	ServicePrice float64

	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired возвращает true, если TTL холда истек
func (h *SlotHold) IsExpired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// EndTime возвращает время окончания услуги (без буфера)
func (h *SlotHold) EndTime() (types.TimeString, error) {
	return h.StartTime.AddMinutes(h.DurationMinutes)
}

// BlockedRange возвращает интервал, занимаемый холдом с учетом буферов
func (h *SlotHold) BlockedRange() (TimeRange, error) {
	return blockedRange(h.StartTime, h.DurationMinutes, h.BufferBeforeMinutes, h.BufferAfterMinutes)
}
