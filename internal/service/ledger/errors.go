package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSlotUnavailable возвращается, когда интервал занят на момент
	// холда: емкость выбрана с момента последнего чтения слотов.
	// Клиенту следует перезапросить доступные слоты
	ErrSlotUnavailable = errors.New("ledger: slot not available")

	// ErrOverbookingLimitExceeded возвращается, когда выбран и
	// overbooking-допуск: жесткий потолок емкости, повтор бессмысленен
	ErrOverbookingLimitExceeded = errors.New("ledger: overbooking limit exceeded")

	// ErrClientBlocked возвращается при попытке холда заблокированным
	// за неявки клиентом
	ErrClientBlocked = errors.New("ledger: client blocked for repeated no-shows")

	// ErrHoldNotFound возвращается, когда холд не найден или уже истек
	ErrHoldNotFound = errors.New("ledger: hold not found")

	// ErrHoldExpired возвращается при попытке commit по истекшему холду
	ErrHoldExpired = errors.New("ledger: hold expired")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("ledger: booking not found")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = errors.New("ledger: invalid status transition")

	// ErrPolicyViolation возвращается при отмене вне допустимых условий,
	// например для бронирования в терминальном статусе
	ErrPolicyViolation = errors.New("ledger: policy violation")

	// ErrOfferExpired возвращается при подтверждении просроченного оффера
	ErrOfferExpired = errors.New("ledger: waitlist offer expired")

	// ErrOfferConflict возвращается, когда оффер уже подтвержден
	// параллельным запросом
	ErrOfferConflict = errors.New("ledger: waitlist offer already taken")

	// ErrWaitlistEntryNotFound возвращается, когда запись листа ожидания
	// не найдена
	ErrWaitlistEntryNotFound = errors.New("ledger: waitlist entry not found")

	// ErrPaymentDeclined возвращается при отказе платежного шлюза
	ErrPaymentDeclined = errors.New("ledger: payment declined")

	// ErrProviderNotFound возвращается, когда провайдер не найден в каталоге
	ErrProviderNotFound = errors.New("ledger: provider not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена в каталоге
	ErrServiceNotFound = errors.New("ledger: service not found")

	// ErrAccessDenied возвращается при попытке работы с чужим холдом или бронированием
	ErrAccessDenied = errors.New("ledger: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("ledger: invalid input data")

	// ErrTooLateToBook возвращается, когда слот начинается раньше
	// минимального времени предупреждения
	ErrTooLateToBook = errors.New("ledger: too late to book this slot")

	// ErrDateTooFar возвращается, когда дата дальше горизонта бронирования
	ErrDateTooFar = errors.New("ledger: booking date too far ahead")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("ledger: internal error")
)

// BlockedError несет срок окончания блокировки клиента.
// Сопоставляется с ErrClientBlocked через errors.Is.
type BlockedError struct {
	ActiveUntil time.Time
	NoShowCount int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("ledger: client blocked until %s (%d no-shows)",
		e.ActiveUntil.Format(time.RFC3339), e.NoShowCount)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrClientBlocked
}
