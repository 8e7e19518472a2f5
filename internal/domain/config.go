package domain

import "time"

// SchedulingConfig represents the scheduling configuration for a provider.
// Supports hierarchical configuration:
// 1. Service at specific location (provider_id, location_id, service_id)
// 2. Location-wide (provider_id, location_id, NULL)
// 3. Provider-wide (provider_id, NULL, NULL)
type SchedulingConfig struct {
	ID         int64
	ProviderID int64
	LocationID *int64 // NULL = config for all locations
	ServiceID  *int64 // NULL = config for all services

	// SlotGranularityMinutes шаг генерации слотов; 0 = шаг равен
	// длительности услуги
	SlotGranularityMinutes int

	// BaseCapacity базовая емкость на пересекающийся интервал
	// (1 для календаря одного специалиста)
	BaseCapacity int

	// OverbookingPercent допуск сверх базовой емкости в процентах
	// (например, 100 разрешает вдвое больше холдов на интервал)
	OverbookingPercent int

	AdvanceBookingDays      int // 0 = unlimited
	MinBookingNoticeMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsGlobalConfig returns true if this is a provider-wide configuration
func (c *SchedulingConfig) IsGlobalConfig() bool {
	return c.LocationID == nil && c.ServiceID == nil
}

// IsLocationSpecific returns true if this configuration is for a specific location
func (c *SchedulingConfig) IsLocationSpecific() bool {
	return c.LocationID != nil && c.ServiceID == nil
}

// IsServiceSpecific returns true if this configuration is for a specific service
func (c *SchedulingConfig) IsServiceSpecific() bool {
	return c.ServiceID != nil
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (c *SchedulingConfig) HasAdvanceBookingLimit() bool {
	return c.AdvanceBookingDays > 0
}

// CapacityLimit возвращает полную емкость интервала с учетом
// overbooking-допуска: floor(base * (1 + percent/100))
func (c *SchedulingConfig) CapacityLimit() int {
	return c.BaseCapacity * (100 + c.OverbookingPercent) / 100
}

// AllowsOverbooking returns true if the capacity limit exceeds base capacity
func (c *SchedulingConfig) AllowsOverbooking() bool {
	return c.CapacityLimit() > c.BaseCapacity
}
