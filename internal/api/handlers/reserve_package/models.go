package reserve_package

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	reservePackage "github.com/m04kA/SMC-SchedulingService/internal/usecase/reserve_package"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ReservePackageRequest HTTP request model
type ReservePackageRequest struct {
	ProviderID     int64   `json:"providerId"`
	LocationID     int64   `json:"locationId"`
	ServiceIDs     []int64 `json:"serviceIds"` // порядок выполнения услуг
	BookingDate    string  `json:"bookingDate"`
	StartTime      string  `json:"startTime"`
	InstantCapture bool    `json:"instantCapture"`
	Notes          *string `json:"notes,omitempty"`
}

// PackageResponse HTTP response model
type PackageResponse struct {
	PackageKey string                         `json:"packageKey"`
	Booking    *bookingModels.BookingResponse `json:"booking"`
}

// PartialFailureResponse HTTP модель отказа пакетной резервации
type PartialFailureResponse struct {
	Error       string `json:"error"`
	FailedIndex int    `json:"failedIndex"`
	ServiceID   int64  `json:"serviceId"`
	Reason      string `json:"reason"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReservePackageRequest) ToUseCaseRequest(clientID int64) (*reservePackage.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &reservePackage.Request{
		ClientID:       clientID,
		ProviderID:     r.ProviderID,
		LocationID:     r.LocationID,
		ServiceIDs:     r.ServiceIDs,
		Date:           date,
		StartTime:      startTime,
		InstantCapture: r.InstantCapture,
		Notes:          r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reservePackage.Response) *PackageResponse {
	return &PackageResponse{
		PackageKey: resp.PackageKey,
		Booking:    bookingModels.FromDomainBooking(resp.Booking),
	}
}
