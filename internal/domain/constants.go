package domain

// Default configuration values
const (
	DefaultSlotGranularityMinutes  = 0 // 0 = шаг равен длительности услуги
	DefaultBaseCapacity            = 1
	DefaultOverbookingPercent      = 0
	DefaultAdvanceBookingDays      = 0  // 0 = unlimited
	DefaultMinBookingNoticeMinutes = 60 // 1 hour
)

// Business validation constants
const (
	MinServiceDurationMinutes = 5
	MaxServiceDurationMinutes = 480 // 8 hours
	MinBaseCapacity           = 1
	MaxBaseCapacity           = 100
	MinOverbookingPercent     = 0
	MaxOverbookingPercent     = 200
	MinAdvanceBookingDays     = 0
	MaxAdvanceBookingDays     = 365 // 1 year
	MaxNotesLength            = 500
	MaxCancellationReasonLen  = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses список статусов, не потребляющих емкость.
// Используется для фильтрации при подсчете занятости интервалов.
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
	StatusNoShow,
}

// ActiveStatuses список статусов активных бронирований
var ActiveStatuses = []BookingStatus{
	StatusPendingPayment,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
}
