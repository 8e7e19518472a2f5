package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// GetClientBookingsRequest запрос истории бронирований клиента
type GetClientBookingsRequest struct {
	ClientID int64   `json:"clientId"`
	Status   *string `json:"status,omitempty"`
}

// GetProviderScheduleRequest запрос бронирований провайдера с фильтрацией
type GetProviderScheduleRequest struct {
	ProviderID      int64      `json:"providerId"`
	LocationID      *int64     `json:"locationId,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Status          *string    `json:"status,omitempty"`
	IncludeInactive bool       `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderScheduleRequest) ToDomainFilter() (domain.ProviderBookingsFilter, error) {
	filter := domain.ProviderBookingsFilter{
		ProviderID:      r.ProviderID,
		LocationID:      r.LocationID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                 int64    `json:"id"`
	ClientID           int64    `json:"clientId"`
	ProviderID         int64    `json:"providerId"`
	LocationID         int64    `json:"locationId"`
	ServiceIDs         []int64  `json:"serviceIds"`
	BookingDate        string   `json:"bookingDate"` // "2026-03-15"
	StartTime          string   `json:"startTime"`   // "10:00"
	EndTime            string   `json:"endTime"`     // "11:00"
	DurationMinutes    int      `json:"durationMinutes"`
	Status             string   `json:"status"`
	Overbooked         bool     `json:"overbooked"`
	ServiceName        string   `json:"serviceName"`
	ServicePrice       float64  `json:"servicePrice"`
	Notes              *string  `json:"notes,omitempty"`
	CancellationReason *string  `json:"cancellationReason,omitempty"`
	CancelledBy        *string  `json:"cancelledBy,omitempty"`
	CancellationFee    *float64 `json:"cancellationFee,omitempty"`
	CreatedAt          string   `json:"createdAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

// FromDomainBooking конвертирует domain бронирование в response
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		ProviderID:         b.ProviderID,
		LocationID:         b.LocationID,
		ServiceIDs:         b.ServiceIDs,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		Overbooked:         b.Overbooked,
		ServiceName:        b.ServiceName,
		ServicePrice:       b.ServicePrice,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CancellationFee:    b.CancellationFee,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
	}

	if end, err := b.EndTime(); err == nil {
		resp.EndTime = end.String()
	}
	if b.CancelledBy != nil {
		cancelledBy := string(*b.CancelledBy)
		resp.CancelledBy = &cancelledBy
	}

	return resp
}

// FromDomainBookingList конвертирует список domain бронирований в response
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	responses := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, FromDomainBooking(b))
	}
	return &BookingListResponse{
		Bookings: responses,
		Total:    len(responses),
	}
}

// ToDomainBookingStatus конвертирует строку в domain статус
func ToDomainBookingStatus(s string) (domain.BookingStatus, error) {
	status := domain.BookingStatus(s)
	switch status {
	case domain.StatusPendingPayment, domain.StatusConfirmed, domain.StatusInProgress,
		domain.StatusCompleted, domain.StatusCancelled, domain.StatusNoShow:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}
