package domain

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusInProgress     BookingStatus = "in_progress"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusNoShow         BookingStatus = "no_show"
)

// CancelledBy указывает, кто отменил бронирование
type CancelledBy string

const (
	CancelledByClient   CancelledBy = "client"
	CancelledByProvider CancelledBy = "provider"
	CancelledBySystem   CancelledBy = "system"
)

var (
	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = errors.New("domain: invalid booking status transition")
)

// transitions таблица допустимых переходов статусов.
// Терминальные статусы (completed, cancelled, no_show) переходов не имеют:
// бронирование после них неизменяемо. Все изменения статуса проходят через
// ValidateTransition - компоненты не переключают статус напрямую.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress:     {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition проверяет допустимость перехода from -> to
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition возвращает ErrInvalidTransition для недопустимого перехода
func ValidateTransition(from, to BookingStatus) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// Booking represents a confirmed reservation of provider time.
// Владелец записи - ledger: никакой другой компонент не изменяет
// бронирование напрямую.
type Booking struct {
	ID         int64
	ClientID   int64
	ProviderID int64
	LocationID int64

	// ServiceIDs: один элемент для обычного бронирования,
	// упорядоченный список для пакета услуг
	ServiceIDs []int64

	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int

	// Буферы вокруг интервала услуги (подготовка/уборка).
	// Денормализованы из каталога на момент бронирования.
	BufferBeforeMinutes int
	BufferAfterMinutes  int

	Status     BookingStatus
	Overbooked bool

	// Denormalized data for history
	ServiceName  string
	ServicePrice float64
	Notes        *string

	PaymentAuthID *string

	CancellationReason *string
	CancelledBy        *CancelledBy
	CancelledAt        *time.Time
	CancellationFee    *float64 // процент от цены, 0-100

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still consumes capacity
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled && b.Status != StatusNoShow
}

// IsTerminal returns true if the booking reached a terminal state
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled || b.Status == StatusNoShow
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return CanTransition(b.Status, StatusCancelled)
}

// IsPackage returns true if the booking covers multiple services
func (b *Booking) IsPackage() bool {
	return len(b.ServiceIDs) > 1
}

// EndTime возвращает время окончания услуги (без буфера)
func (b *Booking) EndTime() (types.TimeString, error) {
	return b.StartTime.AddMinutes(b.DurationMinutes)
}

// BlockedRange возвращает интервал, занимаемый бронированием с учетом
// буферов. Именно этот интервал участвует в подсчете занятости.
func (b *Booking) BlockedRange() (TimeRange, error) {
	return blockedRange(b.StartTime, b.DurationMinutes, b.BufferBeforeMinutes, b.BufferAfterMinutes)
}

// StartsAt возвращает момент начала бронирования как time.Time
// в часовом поясе даты бронирования
func (b *Booking) StartsAt() (time.Time, error) {
	minutes, err := b.StartTime.Minutes()
	if err != nil {
		return time.Time{}, err
	}
	d := b.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()).
		Add(time.Duration(minutes) * time.Minute), nil
}

// blockedRange общий расчет занимаемого интервала для бронирований и холдов.
// Буфер "до" не может уйти за начало суток - обрезается по 00:00.
func blockedRange(start types.TimeString, duration, bufferBefore, bufferAfter int) (TimeRange, error) {
	startMinutes, err := start.Minutes()
	if err != nil {
		return TimeRange{}, err
	}

	fromMinutes := startMinutes - bufferBefore
	if fromMinutes < 0 {
		fromMinutes = 0
	}

	from, err := types.NewTimeStringFromMinutes(fromMinutes)
	if err != nil {
		return TimeRange{}, err
	}

	to, err := start.AddMinutes(duration + bufferAfter)
	if err != nil {
		return TimeRange{}, err
	}

	return TimeRange{Start: from, End: to}, nil
}

// ProviderBookingsFilter фильтр для получения бронирований провайдера
type ProviderBookingsFilter struct {
	ProviderID      int64          // Обязательный параметр
	LocationID      *int64         // Фильтр по локации (опционально)
	StartDate       *time.Time     // Начало периода (опционально)
	EndDate         *time.Time     // Конец периода (опционально)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли отмененные и no-show
}
