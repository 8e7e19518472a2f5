package notify

import "time"

// Тип события уведомления
const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingNoShow    = "booking_no_show"
	EventWaitlistOffer    = "waitlist_offer"
	EventOfferExpired     = "waitlist_offer_expired"
)

// Event событие для отправки в NotificationService
type Event struct {
	Type       string     `json:"type"`
	ClientID   int64      `json:"client_id"`
	ProviderID int64      `json:"provider_id"`
	BookingID  *int64     `json:"booking_id,omitempty"`
	EntryID    *int64     `json:"entry_id,omitempty"`
	Date       string     `json:"date,omitempty"`
	StartTime  string     `json:"start_time,omitempty"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	Message    string     `json:"message,omitempty"`
}
