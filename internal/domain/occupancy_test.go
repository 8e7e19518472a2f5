package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOccupiedCount тестирует подсчет занятости интервала
func TestOccupiedCount(t *testing.T) {
	candidate := TimeRange{Start: "10:00", End: "11:00"}

	tests := []struct {
		name     string
		bookings []*Booking
		holds    []*SlotHold
		want     int
	}{
		{
			name: "empty day",
			want: 0,
		},
		{
			name: "overlapping booking counts",
			bookings: []*Booking{
				{Status: StatusConfirmed, StartTime: "10:30", DurationMinutes: 60},
			},
			want: 1,
		},
		{
			name: "cancelled booking does not count",
			bookings: []*Booking{
				{Status: StatusCancelled, StartTime: "10:30", DurationMinutes: 60},
			},
			want: 0,
		},
		{
			name: "no_show booking does not count",
			bookings: []*Booking{
				{Status: StatusNoShow, StartTime: "10:00", DurationMinutes: 60},
			},
			want: 0,
		},
		{
			name: "adjacent booking does not count",
			bookings: []*Booking{
				{Status: StatusConfirmed, StartTime: "11:00", DurationMinutes: 60},
			},
			want: 0,
		},
		{
			name: "buffer makes adjacent booking overlap",
			bookings: []*Booking{
				{Status: StatusConfirmed, StartTime: "11:00", DurationMinutes: 60, BufferBeforeMinutes: 15},
			},
			want: 1,
		},
		{
			name: "hold counts alongside booking",
			bookings: []*Booking{
				{Status: StatusConfirmed, StartTime: "09:30", DurationMinutes: 60},
			},
			holds: []*SlotHold{
				{StartTime: "10:15", DurationMinutes: 30},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OccupiedCount(candidate, tt.bookings, tt.holds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestOccupiedCountInvalidTime тестирует ошибку при некорректном времени
func TestOccupiedCountInvalidTime(t *testing.T) {
	candidate := TimeRange{Start: "10:00", End: "11:00"}
	bookings := []*Booking{
		{Status: StatusConfirmed, StartTime: "bad", DurationMinutes: 60},
	}

	_, err := OccupiedCount(candidate, bookings, nil)
	assert.Error(t, err)
}

// TestCapacityLimit тестирует емкость с overbooking-допуском
func TestCapacityLimit(t *testing.T) {
	tests := []struct {
		name        string
		base        int
		overbooking int
		want        int
	}{
		{name: "no overbooking", base: 1, overbooking: 0, want: 1},
		{name: "double capacity", base: 1, overbooking: 100, want: 2},
		{name: "fractional floor", base: 1, overbooking: 50, want: 1},
		{name: "fractional floor on larger base", base: 3, overbooking: 50, want: 4},
		{name: "multi workstation", base: 4, overbooking: 25, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &SchedulingConfig{BaseCapacity: tt.base, OverbookingPercent: tt.overbooking}
			assert.Equal(t, tt.want, cfg.CapacityLimit())
			assert.Equal(t, tt.want > tt.base, cfg.AllowsOverbooking())
		})
	}
}

// TestSlotHoldIsExpired тестирует проверку истечения TTL холда
func TestSlotHoldIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	h := &SlotHold{ExpiresAt: now.Add(30 * time.Second)}
	assert.False(t, h.IsExpired(now))
	assert.True(t, h.IsExpired(h.ExpiresAt))
	assert.True(t, h.IsExpired(h.ExpiresAt.Add(time.Second)))
}
