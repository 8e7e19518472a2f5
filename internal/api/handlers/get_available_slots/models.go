package get_available_slots

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	generateSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/generate_slots"
)

// SlotResponse HTTP модель слота
type SlotResponse struct {
	StartTime       string `json:"startTime"` // "10:00"
	DurationMinutes int    `json:"durationMinutes"`
	AvailableSpots  int    `json:"availableSpots"`
	TotalSpots      int    `json:"totalSpots"`
}

// SlotsResponse HTTP модель ответа со списком слотов
type SlotsResponse struct {
	Date       string         `json:"date"` // "2026-03-15"
	ProviderID int64          `json:"providerId"`
	LocationID int64          `json:"locationId"`
	ServiceID  int64          `json:"serviceId"`
	Slots      []SlotResponse `json:"slots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *generateSlots.Response) *SlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			StartTime:       s.StartTime.String(),
			DurationMinutes: s.DurationMinutes,
			AvailableSpots:  s.AvailableSpots,
			TotalSpots:      s.TotalSpots,
		})
	}

	return &SlotsResponse{
		Date:       resp.Date.Format(domain.DateFormat),
		ProviderID: resp.ProviderID,
		LocationID: resp.LocationID,
		ServiceID:  resp.ServiceID,
		Slots:      slots,
	}
}
