package join_waitlist

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// JoinWaitlistRequest HTTP request model
type JoinWaitlistRequest struct {
	ProviderID  int64  `json:"providerId"`
	LocationID  int64  `json:"locationId"`
	ServiceID   int64  `json:"serviceId"`
	DesiredDate string `json:"desiredDate"` // "2026-03-15"
	WindowStart string `json:"windowStart"` // "10:00"
	WindowEnd   string `json:"windowEnd"`   // "14:00"
}

// WaitlistEntryResponse HTTP response model
type WaitlistEntryResponse struct {
	ID             int64   `json:"id"`
	ClientID       int64   `json:"clientId"`
	ProviderID     int64   `json:"providerId"`
	LocationID     int64   `json:"locationId"`
	ServiceID      int64   `json:"serviceId"`
	DesiredDate    string  `json:"desiredDate"`
	WindowStart    string  `json:"windowStart"`
	WindowEnd      string  `json:"windowEnd"`
	Status         string  `json:"status"`
	OfferStart     *string `json:"offerStart,omitempty"`
	OfferExpiresAt *string `json:"offerExpiresAt,omitempty"` // RFC3339
	RequestedAt    string  `json:"requestedAt"`              // RFC3339
}

// ToDomainEntry конвертирует HTTP запрос в domain запись листа ожидания
func (r *JoinWaitlistRequest) ToDomainEntry(clientID int64) (*domain.WaitlistEntry, error) {
	date, err := time.Parse(domain.DateFormat, r.DesiredDate)
	if err != nil {
		return nil, err
	}

	windowStart, err := types.NewTimeStringFromString(r.WindowStart)
	if err != nil {
		return nil, err
	}

	windowEnd, err := types.NewTimeStringFromString(r.WindowEnd)
	if err != nil {
		return nil, err
	}

	return &domain.WaitlistEntry{
		ClientID:    clientID,
		ProviderID:  r.ProviderID,
		LocationID:  r.LocationID,
		ServiceID:   r.ServiceID,
		DesiredDate: date,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}, nil
}

// FromDomainEntry конвертирует domain запись в HTTP response
func FromDomainEntry(e *domain.WaitlistEntry) *WaitlistEntryResponse {
	resp := &WaitlistEntryResponse{
		ID:          e.ID,
		ClientID:    e.ClientID,
		ProviderID:  e.ProviderID,
		LocationID:  e.LocationID,
		ServiceID:   e.ServiceID,
		DesiredDate: e.DesiredDate.Format(domain.DateFormat),
		WindowStart: e.WindowStart.String(),
		WindowEnd:   e.WindowEnd.String(),
		Status:      string(e.Status),
		RequestedAt: e.RequestedAt.Format(time.RFC3339),
	}

	if e.OfferStart != nil {
		offerStart := e.OfferStart.String()
		resp.OfferStart = &offerStart
	}
	if e.OfferExpiresAt != nil {
		expiresAt := e.OfferExpiresAt.Format(time.RFC3339)
		resp.OfferExpiresAt = &expiresAt
	}

	return resp
}
