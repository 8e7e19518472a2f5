package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// TestTimeRangeOverlaps тестирует пересечение интервалов строгими неравенствами
func TestTimeRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    TimeRange
		b    TimeRange
		want bool
	}{
		{
			name: "full overlap",
			a:    TimeRange{Start: "09:00", End: "12:00"},
			b:    TimeRange{Start: "10:00", End: "11:00"},
			want: true,
		},
		{
			name: "partial overlap",
			a:    TimeRange{Start: "09:00", End: "11:00"},
			b:    TimeRange{Start: "10:00", End: "12:00"},
			want: true,
		},
		{
			name: "touching boundaries do not overlap",
			a:    TimeRange{Start: "09:00", End: "10:00"},
			b:    TimeRange{Start: "10:00", End: "11:00"},
			want: false,
		},
		{
			name: "disjoint",
			a:    TimeRange{Start: "09:00", End: "10:00"},
			b:    TimeRange{Start: "14:00", End: "15:00"},
			want: false,
		},
		{
			name: "identical ranges",
			a:    TimeRange{Start: "09:00", End: "10:00"},
			b:    TimeRange{Start: "09:00", End: "10:00"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

// TestTimeRangeContains тестирует вложенность интервалов
func TestTimeRangeContains(t *testing.T) {
	outer := TimeRange{Start: "09:00", End: "18:00"}

	assert.True(t, outer.Contains(TimeRange{Start: "10:00", End: "11:00"}))
	assert.True(t, outer.Contains(TimeRange{Start: "09:00", End: "18:00"}))
	assert.False(t, outer.Contains(TimeRange{Start: "08:00", End: "10:00"}))
	assert.False(t, outer.Contains(TimeRange{Start: "17:00", End: "19:00"}))
}

// TestTimeRangeIsValid тестирует валидность интервала
func TestTimeRangeIsValid(t *testing.T) {
	assert.True(t, TimeRange{Start: "09:00", End: "10:00"}.IsValid())
	assert.True(t, TimeRange{Start: "23:00", End: "24:00"}.IsValid())
	assert.False(t, TimeRange{Start: "10:00", End: "10:00"}.IsValid())
	assert.False(t, TimeRange{Start: "11:00", End: "10:00"}.IsValid())
}

// TestExceptionRange тестирует интервал исключения
func TestExceptionRange(t *testing.T) {
	start := types.TimeString("13:00")
	end := types.TimeString("15:00")

	partial := &AvailabilityException{Kind: ExceptionBlocked, StartTime: &start, EndTime: &end}
	assert.Equal(t, TimeRange{Start: "13:00", End: "15:00"}, partial.Range())

	// Без времени блокируется весь день
	fullDay := &AvailabilityException{Kind: ExceptionBlocked}
	assert.Equal(t, TimeRange{Start: "00:00", End: "24:00"}, fullDay.Range())
}

// TestExceptionKindIsValid тестирует допустимые виды исключений
func TestExceptionKindIsValid(t *testing.T) {
	assert.True(t, ExceptionBlocked.IsValid())
	assert.True(t, ExceptionAdded.IsValid())
	assert.False(t, ExceptionKind("holiday").IsValid())
}
