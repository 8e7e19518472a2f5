package create_hold

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// CreateHoldRequest HTTP request model
type CreateHoldRequest struct {
	ProviderID  int64  `json:"providerId"`
	LocationID  int64  `json:"locationId"`
	ServiceID   int64  `json:"serviceId"`
	BookingDate string `json:"bookingDate"` // "2026-03-15"
	StartTime   string `json:"startTime"`   // "10:00"
}

// HoldResponse HTTP response model
type HoldResponse struct {
	ID              int64   `json:"id"`
	ProviderID      int64   `json:"providerId"`
	LocationID      int64   `json:"locationId"`
	ServiceIDs      []int64 `json:"serviceIds"`
	BookingDate     string  `json:"bookingDate"`
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Overbooked      bool    `json:"overbooked"`
	ServiceName     string  `json:"serviceName"`
	ServicePrice    float64 `json:"servicePrice"`
	ExpiresAt       string  `json:"expiresAt"` // RFC3339
}

// BlockedResponse HTTP модель отказа заблокированному клиенту
type BlockedResponse struct {
	Error        string `json:"error"`
	BlockedUntil string `json:"blockedUntil"` // RFC3339
	NoShowCount  int    `json:"noShowCount"`
}

// ToLedgerRequest конвертирует HTTP запрос в модель леджера
func (r *CreateHoldRequest) ToLedgerRequest(clientID int64) (ledger.HoldRequest, error) {
	date, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return ledger.HoldRequest{}, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return ledger.HoldRequest{}, err
	}

	return ledger.HoldRequest{
		ClientID:   clientID,
		ProviderID: r.ProviderID,
		LocationID: r.LocationID,
		ServiceID:  r.ServiceID,
		Date:       date,
		StartTime:  startTime,
	}, nil
}

// FromDomainHold конвертирует domain холд в HTTP response
func FromDomainHold(h *domain.SlotHold) *HoldResponse {
	return &HoldResponse{
		ID:              h.ID,
		ProviderID:      h.ProviderID,
		LocationID:      h.LocationID,
		ServiceIDs:      h.ServiceIDs,
		BookingDate:     h.BookingDate.Format(domain.DateFormat),
		StartTime:       h.StartTime.String(),
		DurationMinutes: h.DurationMinutes,
		Overbooked:      h.Overbooked,
		ServiceName:     h.ServiceName,
		ServicePrice:    h.ServicePrice,
		ExpiresAt:       h.ExpiresAt.Format(time.RFC3339),
	}
}
