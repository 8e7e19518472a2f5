package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// CreateConfigRequest запрос на создание конфигурации расписания
type CreateConfigRequest struct {
	ProviderID              int64  `json:"providerId"`
	LocationID              *int64 `json:"locationId,omitempty"`
	ServiceID               *int64 `json:"serviceId,omitempty"`
	SlotGranularityMinutes  int    `json:"slotGranularityMinutes"`
	BaseCapacity            int    `json:"baseCapacity"`
	OverbookingPercent      int    `json:"overbookingPercent"`
	AdvanceBookingDays      int    `json:"advanceBookingDays"`
	MinBookingNoticeMinutes int    `json:"minBookingNoticeMinutes"`
}

// ToDomainConfig конвертирует request в domain конфигурацию
func (r *CreateConfigRequest) ToDomainConfig() *domain.SchedulingConfig {
	return &domain.SchedulingConfig{
		ProviderID:              r.ProviderID,
		LocationID:              r.LocationID,
		ServiceID:               r.ServiceID,
		SlotGranularityMinutes:  r.SlotGranularityMinutes,
		BaseCapacity:            r.BaseCapacity,
		OverbookingPercent:      r.OverbookingPercent,
		AdvanceBookingDays:      r.AdvanceBookingDays,
		MinBookingNoticeMinutes: r.MinBookingNoticeMinutes,
	}
}

// UpdateConfigRequest запрос на обновление конфигурации расписания
type UpdateConfigRequest struct {
	SlotGranularityMinutes  int `json:"slotGranularityMinutes"`
	BaseCapacity            int `json:"baseCapacity"`
	OverbookingPercent      int `json:"overbookingPercent"`
	AdvanceBookingDays      int `json:"advanceBookingDays"`
	MinBookingNoticeMinutes int `json:"minBookingNoticeMinutes"`
}

// Response модели

// ConfigResponse ответ с конфигурацией расписания
type ConfigResponse struct {
	ID                      int64  `json:"id"`
	ProviderID              int64  `json:"providerId"`
	LocationID              *int64 `json:"locationId,omitempty"`
	ServiceID               *int64 `json:"serviceId,omitempty"`
	SlotGranularityMinutes  int    `json:"slotGranularityMinutes"`
	BaseCapacity            int    `json:"baseCapacity"`
	OverbookingPercent      int    `json:"overbookingPercent"`
	CapacityLimit           int    `json:"capacityLimit"`
	AdvanceBookingDays      int    `json:"advanceBookingDays"`
	MinBookingNoticeMinutes int    `json:"minBookingNoticeMinutes"`
	CreatedAt               string `json:"createdAt"`
	UpdatedAt               string `json:"updatedAt"`
}

// ConfigListResponse список конфигураций провайдера
type ConfigListResponse struct {
	Configs []*ConfigResponse `json:"configs"`
	Total   int               `json:"total"`
}

// FromDomainConfig конвертирует domain конфигурацию в response
func FromDomainConfig(c *domain.SchedulingConfig) *ConfigResponse {
	return &ConfigResponse{
		ID:                      c.ID,
		ProviderID:              c.ProviderID,
		LocationID:              c.LocationID,
		ServiceID:               c.ServiceID,
		SlotGranularityMinutes:  c.SlotGranularityMinutes,
		BaseCapacity:            c.BaseCapacity,
		OverbookingPercent:      c.OverbookingPercent,
		CapacityLimit:           c.CapacityLimit(),
		AdvanceBookingDays:      c.AdvanceBookingDays,
		MinBookingNoticeMinutes: c.MinBookingNoticeMinutes,
		CreatedAt:               c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               c.UpdatedAt.Format(time.RFC3339),
	}
}

// FromDomainConfigList конвертирует список конфигураций в response
func FromDomainConfigList(configs []*domain.SchedulingConfig) *ConfigListResponse {
	responses := make([]*ConfigResponse, 0, len(configs))
	for _, c := range configs {
		responses = append(responses, FromDomainConfig(c))
	}
	return &ConfigListResponse{
		Configs: responses,
		Total:   len(responses),
	}
}
