package update_provider_config

import (
	"github.com/m04kA/SMC-SchedulingService/internal/service/config/models"
)

// UpsertConfigRequest HTTP request model: конфигурация уровня, заданного
// комбинацией locationId/serviceId (оба nil - уровень провайдера)
type UpsertConfigRequest struct {
	LocationID              *int64 `json:"locationId,omitempty"`
	ServiceID               *int64 `json:"serviceId,omitempty"`
	SlotGranularityMinutes  int    `json:"slotGranularityMinutes"`
	BaseCapacity            int    `json:"baseCapacity"`
	OverbookingPercent      int    `json:"overbookingPercent"`
	AdvanceBookingDays      int    `json:"advanceBookingDays"`
	MinBookingNoticeMinutes int    `json:"minBookingNoticeMinutes"`
}

// ToCreateRequest конвертирует HTTP запрос в модель создания конфигурации
func (r *UpsertConfigRequest) ToCreateRequest(providerID int64) *models.CreateConfigRequest {
	return &models.CreateConfigRequest{
		ProviderID:              providerID,
		LocationID:              r.LocationID,
		ServiceID:               r.ServiceID,
		SlotGranularityMinutes:  r.SlotGranularityMinutes,
		BaseCapacity:            r.BaseCapacity,
		OverbookingPercent:      r.OverbookingPercent,
		AdvanceBookingDays:      r.AdvanceBookingDays,
		MinBookingNoticeMinutes: r.MinBookingNoticeMinutes,
	}
}

// ToUpdateRequest конвертирует HTTP запрос в модель обновления конфигурации
func (r *UpsertConfigRequest) ToUpdateRequest() *models.UpdateConfigRequest {
	return &models.UpdateConfigRequest{
		SlotGranularityMinutes:  r.SlotGranularityMinutes,
		BaseCapacity:            r.BaseCapacity,
		OverbookingPercent:      r.OverbookingPercent,
		AdvanceBookingDays:      r.AdvanceBookingDays,
		MinBookingNoticeMinutes: r.MinBookingNoticeMinutes,
	}
}
