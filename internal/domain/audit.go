package domain

import "time"

// Audit event types
const (
	AuditHoldCreated      = "hold_created"
	AuditHoldReleased     = "hold_released"
	AuditHoldExpired      = "hold_expired"
	AuditBookingCommitted = "booking_committed"
	AuditStatusChanged    = "status_changed"
	AuditBookingCancelled = "booking_cancelled"
	AuditNoShowMarked     = "no_show_marked"
	AuditFeeApplied       = "cancellation_fee_applied"
	AuditClientBlocked    = "client_blocked"
	AuditWaitlistJoined   = "waitlist_joined"
	AuditWaitlistOffered  = "waitlist_offered"
	AuditWaitlistExpired  = "waitlist_offer_expired"
	AuditWaitlistConfirm  = "waitlist_confirmed"
)

// AuditEvent запись аудита: фиксируется на каждом переходе статуса
// и каждом policy-решении
type AuditEvent struct {
	ID        int64
	EventType string
	Actor     string
	EntityID  int64
	Before    string
	After     string
	CreatedAt time.Time
}
