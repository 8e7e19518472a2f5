package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// TimeRange интервал времени внутри одних суток [Start, End)
type TimeRange struct {
	Start types.TimeString
	End   types.TimeString
}

// IsValid проверяет, что начало строго раньше конца
func (r TimeRange) IsValid() bool {
	return r.Start.IsBefore(r.End)
}

// Overlaps проверяет РЕАЛЬНОЕ пересечение интервалов.
// Интервалы, которые граничат (конец одного равен началу другого),
// пересечением не считаются - используются строгие неравенства.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.IsBefore(other.End) && other.Start.IsBefore(r.End)
}

// Contains проверяет, что other полностью лежит внутри r
func (r TimeRange) Contains(other TimeRange) bool {
	return !other.Start.IsBefore(r.Start) && !r.End.IsBefore(other.End)
}

// Minutes возвращает длину интервала в минутах
func (r TimeRange) Minutes() (int, error) {
	return r.End.Sub(r.Start)
}

// AvailabilityWindow повторяющееся рабочее окно провайдера на день недели
type AvailabilityWindow struct {
	ID         int64
	ProviderID int64
	Weekday    time.Weekday
	StartTime  types.TimeString
	EndTime    types.TimeString
	Recurring  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Range возвращает интервал окна
func (w *AvailabilityWindow) Range() TimeRange {
	return TimeRange{Start: w.StartTime, End: w.EndTime}
}

// ExceptionKind вид исключения из расписания
type ExceptionKind string

const (
	// ExceptionBlocked вычитает время из генерации слотов
	ExceptionBlocked ExceptionKind = "blocked"

	// ExceptionAdded добавляет время к повторяющимся окнам на эту дату
	ExceptionAdded ExceptionKind = "added"
)

// IsValid проверяет допустимость вида исключения
func (k ExceptionKind) IsValid() bool {
	return k == ExceptionBlocked || k == ExceptionAdded
}

// AvailabilityException исключение из расписания на конкретную дату.
// У blocked-исключения без времени начала/конца блокируется весь день.
type AvailabilityException struct {
	ID         int64
	ProviderID int64
	Date       time.Time
	Kind       ExceptionKind
	StartTime  *types.TimeString
	EndTime    *types.TimeString

	CreatedAt time.Time
}

// Range возвращает интервал исключения. Для исключения без времени
// возвращается весь день [00:00, 24:00).
func (e *AvailabilityException) Range() TimeRange {
	if e.StartTime == nil || e.EndTime == nil {
		return TimeRange{Start: "00:00", End: "24:00"}
	}
	return TimeRange{Start: *e.StartTime, End: *e.EndTime}
}
