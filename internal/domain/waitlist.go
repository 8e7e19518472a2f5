package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// WaitlistStatus статус записи в листе ожидания
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistOffered   WaitlistStatus = "offered"
	WaitlistExpired   WaitlistStatus = "expired"
	WaitlistConfirmed WaitlistStatus = "confirmed"
)

// WaitlistEntry запись клиента в листе ожидания на занятый интервал.
// Очередь FIFO по requested_at; при равенстве времени порядок определяется
// последовательностью вставки (seq). Запись изменяется только менеджером
// листа ожидания.
type WaitlistEntry struct {
	ID         int64
	ClientID   int64
	ProviderID int64
	LocationID int64
	ServiceID  int64

	// Желаемое окно: слот, пересекающийся с [WindowStart, WindowEnd)
	// в дату DesiredDate
	DesiredDate time.Time
	WindowStart types.TimeString
	WindowEnd   types.TimeString

	Status WaitlistStatus

	// Поля оффера: заполнены только в статусе offered
	OfferedAt      *time.Time
	OfferExpiresAt *time.Time
	OfferStart     *types.TimeString
	OfferDuration  *int

	RequestedAt time.Time
	Seq         int64
}

// DesiredRange возвращает желаемое окно записи
func (e *WaitlistEntry) DesiredRange() TimeRange {
	return TimeRange{Start: e.WindowStart, End: e.WindowEnd}
}

// IsOfferExpired возвращает true, если действующий оффер просрочен
func (e *WaitlistEntry) IsOfferExpired(now time.Time) bool {
	return e.Status == WaitlistOffered && e.OfferExpiresAt != nil && !now.Before(*e.OfferExpiresAt)
}
