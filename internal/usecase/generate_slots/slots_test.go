package generate_slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	futureDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

// TestGenerateStartTimes тестирует генерацию кандидатов на начало слота
func TestGenerateStartTimes(t *testing.T) {
	tests := []struct {
		name        string
		windows     []domain.TimeRange
		service     *catalogservice.Service
		granularity int
		want        []types.TimeString
	}{
		{
			name:    "hour service fills window",
			windows: []domain.TimeRange{{Start: "09:00", End: "12:00"}},
			service: &catalogservice.Service{DurationMinutes: 60},
			want:    []types.TimeString{"09:00", "10:00", "11:00"},
		},
		{
			name:        "granularity overrides duration step",
			windows:     []domain.TimeRange{{Start: "09:00", End: "11:00"}},
			service:     &catalogservice.Service{DurationMinutes: 60},
			granularity: 30,
			want:        []types.TimeString{"09:00", "09:30", "10:00"},
		},
		{
			name:    "buffer after must fit in window",
			windows: []domain.TimeRange{{Start: "09:00", End: "11:00"}},
			service: &catalogservice.Service{DurationMinutes: 60, BufferAfterMinutes: 30},
			want:    []types.TimeString{"09:00"},
		},
		{
			name:    "service longer than window yields nothing",
			windows: []domain.TimeRange{{Start: "09:00", End: "09:45"}},
			service: &catalogservice.Service{DurationMinutes: 60},
			want:    []types.TimeString{},
		},
		{
			name: "multiple windows",
			windows: []domain.TimeRange{
				{Start: "09:00", End: "11:00"},
				{Start: "15:00", End: "17:00"},
			},
			service: &catalogservice.Service{DurationMinutes: 60},
			want:    []types.TimeString{"09:00", "10:00", "15:00", "16:00"},
		},
		{
			name:    "window ending at midnight",
			windows: []domain.TimeRange{{Start: "22:00", End: "24:00"}},
			service: &catalogservice.Service{DurationMinutes: 60},
			want:    []types.TimeString{"22:00", "23:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generateStartTimes(tt.windows, tt.service, tt.granularity, futureDate, testNow, 60)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestGenerateStartTimesSameDay тестирует фильтрацию по минимальному
// предупреждению для сегодняшней даты
func TestGenerateStartTimesSameDay(t *testing.T) {
	windows := []domain.TimeRange{{Start: "09:00", End: "18:00"}}
	service := &catalogservice.Service{DurationMinutes: 60}

	// Сейчас 12:00, предупреждение 60 минут: слоты раньше 13:00 недоступны
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := generateStartTimes(windows, service, 0, futureDate, now, 60)
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"13:00", "14:00", "15:00", "16:00", "17:00"}, got)

	// Слот ровно в now + notice доступен
	now = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	got, err = generateStartTimes(windows, service, 0, futureDate, now, 60)
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"14:00", "15:00", "16:00", "17:00"}, got)
}

// TestGenerateStartTimesPastDate тестирует пустой результат для прошедшей даты
func TestGenerateStartTimesPastDate(t *testing.T) {
	windows := []domain.TimeRange{{Start: "09:00", End: "18:00"}}
	service := &catalogservice.Service{DurationMinutes: 60}
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)

	got, err := generateStartTimes(windows, service, 0, futureDate, now, 60)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestCalculateAvailableSpots тестирует подсчет остатка мест по слотам
func TestCalculateAvailableSpots(t *testing.T) {
	service := &catalogservice.Service{DurationMinutes: 60}
	starts := []types.TimeString{"09:00", "10:00", "11:00"}

	tests := []struct {
		name     string
		cfg      *domain.SchedulingConfig
		bookings []*domain.Booking
		holds    []*domain.SlotHold
		want     []int // остаток мест по слотам в порядке starts
	}{
		{
			name: "empty day keeps full capacity",
			cfg:  &domain.SchedulingConfig{BaseCapacity: 1},
			want: []int{1, 1, 1},
		},
		{
			name: "booking consumes its slot only",
			cfg:  &domain.SchedulingConfig{BaseCapacity: 1},
			bookings: []*domain.Booking{
				{Status: domain.StatusConfirmed, StartTime: "10:00", DurationMinutes: 60},
			},
			want: []int{1, 0, 1},
		},
		{
			name: "hold consumes capacity too",
			cfg:  &domain.SchedulingConfig{BaseCapacity: 1},
			holds: []*domain.SlotHold{
				{StartTime: "09:00", DurationMinutes: 60},
			},
			want: []int{0, 1, 1},
		},
		{
			name: "overbooking expands the limit",
			cfg:  &domain.SchedulingConfig{BaseCapacity: 1, OverbookingPercent: 100},
			bookings: []*domain.Booking{
				{Status: domain.StatusConfirmed, StartTime: "10:00", DurationMinutes: 60},
			},
			want: []int{2, 1, 2},
		},
		{
			name: "oversubscribed slot clamps at zero",
			cfg:  &domain.SchedulingConfig{BaseCapacity: 1},
			bookings: []*domain.Booking{
				{Status: domain.StatusConfirmed, StartTime: "10:00", DurationMinutes: 60},
				{Status: domain.StatusConfirmed, StartTime: "10:30", DurationMinutes: 60, Overbooked: true},
			},
			want: []int{1, 0, 0},
		},
		{
			name: "cancelled booking frees capacity",
			cfg:  &domain.SchedulingConfig{BaseCapacity: 1},
			bookings: []*domain.Booking{
				{Status: domain.StatusCancelled, StartTime: "10:00", DurationMinutes: 60},
			},
			want: []int{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := calculateAvailableSpots(starts, service, tt.bookings, tt.holds, tt.cfg)
			require.NoError(t, err)
			require.Len(t, slots, len(tt.want))

			limit := tt.cfg.CapacityLimit()
			for i, slot := range slots {
				assert.Equal(t, starts[i], slot.StartTime)
				assert.Equal(t, service.DurationMinutes, slot.DurationMinutes)
				assert.Equal(t, tt.want[i], slot.AvailableSpots, "slot %s", starts[i])
				assert.Equal(t, limit, slot.TotalSpots)
			}
		})
	}
}

// TestValidateDate тестирует проверку даты против горизонта бронирования
func TestValidateDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		date        time.Time
		advanceDays int
		wantErr     error
	}{
		{name: "today", date: now, advanceDays: 30},
		{name: "yesterday", date: now.AddDate(0, 0, -1), advanceDays: 30, wantErr: ErrInvalidDate},
		{name: "at the horizon", date: now.AddDate(0, 0, 30), advanceDays: 30},
		{name: "beyond the horizon", date: now.AddDate(0, 0, 31), advanceDays: 30, wantErr: ErrDateTooFarInFuture},
		{name: "zero horizon is unlimited", date: now.AddDate(2, 0, 0), advanceDays: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDate(tt.date, now, tt.advanceDays)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
