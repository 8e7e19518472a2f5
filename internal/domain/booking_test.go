package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// TestValidateTransition тестирует таблицу переходов статусов бронирования
func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{name: "pending to confirmed", from: StatusPendingPayment, to: StatusConfirmed, allowed: true},
		{name: "pending to cancelled", from: StatusPendingPayment, to: StatusCancelled, allowed: true},
		{name: "pending to in_progress skips payment", from: StatusPendingPayment, to: StatusInProgress, allowed: false},
		{name: "confirmed to in_progress", from: StatusConfirmed, to: StatusInProgress, allowed: true},
		{name: "confirmed to cancelled", from: StatusConfirmed, to: StatusCancelled, allowed: true},
		{name: "confirmed to no_show", from: StatusConfirmed, to: StatusNoShow, allowed: true},
		{name: "confirmed to completed skips in_progress", from: StatusConfirmed, to: StatusCompleted, allowed: false},
		{name: "in_progress to completed", from: StatusInProgress, to: StatusCompleted, allowed: true},
		{name: "in_progress to cancelled", from: StatusInProgress, to: StatusCancelled, allowed: true},
		{name: "in_progress to no_show", from: StatusInProgress, to: StatusNoShow, allowed: true},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusConfirmed, allowed: false},
		{name: "no_show is terminal", from: StatusNoShow, to: StatusConfirmed, allowed: false},
		{name: "self transition forbidden", from: StatusConfirmed, to: StatusConfirmed, allowed: false},
		{name: "unknown status has no transitions", from: BookingStatus("draft"), to: StatusConfirmed, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

// TestBookingStateHelpers тестирует предикаты статусов бронирования
func TestBookingStateHelpers(t *testing.T) {
	tests := []struct {
		status      BookingStatus
		active      bool
		terminal    bool
		cancellable bool
	}{
		{status: StatusPendingPayment, active: true, terminal: false, cancellable: true},
		{status: StatusConfirmed, active: true, terminal: false, cancellable: true},
		{status: StatusInProgress, active: true, terminal: false, cancellable: true},
		{status: StatusCompleted, active: true, terminal: true, cancellable: false},
		{status: StatusCancelled, active: false, terminal: true, cancellable: false},
		{status: StatusNoShow, active: false, terminal: true, cancellable: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := &Booking{Status: tt.status}
			assert.Equal(t, tt.active, b.IsActive())
			assert.Equal(t, tt.terminal, b.IsTerminal())
			assert.Equal(t, tt.cancellable, b.CanBeCancelled())
		})
	}
}

// TestBookingBlockedRange тестирует расчет занимаемого интервала с буферами
func TestBookingBlockedRange(t *testing.T) {
	tests := []struct {
		name         string
		start        types.TimeString
		duration     int
		bufferBefore int
		bufferAfter  int
		want         TimeRange
		wantErr      bool
	}{
		{
			name:     "no buffers",
			start:    "10:00",
			duration: 60,
			want:     TimeRange{Start: "10:00", End: "11:00"},
		},
		{
			name:         "both buffers",
			start:        "10:00",
			duration:     60,
			bufferBefore: 15,
			bufferAfter:  30,
			want:         TimeRange{Start: "09:45", End: "11:30"},
		},
		{
			name:         "buffer before clamped at midnight",
			start:        "00:10",
			duration:     30,
			bufferBefore: 20,
			want:         TimeRange{Start: "00:00", End: "00:40"},
		},
		{
			name:        "buffer after overflows day",
			start:       "23:30",
			duration:    30,
			bufferAfter: 15,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{
				StartTime:           tt.start,
				DurationMinutes:     tt.duration,
				BufferBeforeMinutes: tt.bufferBefore,
				BufferAfterMinutes:  tt.bufferAfter,
			}
			got, err := b.BlockedRange()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestBookingStartsAt тестирует вычисление момента начала бронирования
func TestBookingStartsAt(t *testing.T) {
	b := &Booking{
		BookingDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   "14:30",
	}

	at, err := b.StartsAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC), at)
}

// TestBookingIsPackage тестирует определение пакетного бронирования
func TestBookingIsPackage(t *testing.T) {
	assert.False(t, (&Booking{ServiceIDs: []int64{1}}).IsPackage())
	assert.True(t, (&Booking{ServiceIDs: []int64{1, 2}}).IsPackage())
}
