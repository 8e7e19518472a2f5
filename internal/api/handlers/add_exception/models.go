package add_exception

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AddExceptionRequest HTTP request model
type AddExceptionRequest struct {
	Date      string  `json:"date"` // "2026-03-15"
	Kind      string  `json:"kind"` // "blocked" | "added"
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
}

// ExceptionResponse HTTP response model
type ExceptionResponse struct {
	ID         int64   `json:"id"`
	ProviderID int64   `json:"providerId"`
	Date       string  `json:"date"`
	Kind       string  `json:"kind"`
	StartTime  *string `json:"startTime,omitempty"`
	EndTime    *string `json:"endTime,omitempty"`
	CreatedAt  string  `json:"createdAt"` // RFC3339
}

// ToDomainException конвертирует HTTP запрос в domain исключение
func (r *AddExceptionRequest) ToDomainException(providerID int64) (*domain.AvailabilityException, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}

	e := &domain.AvailabilityException{
		ProviderID: providerID,
		Date:       date,
		Kind:       domain.ExceptionKind(r.Kind),
	}

	if r.StartTime != nil {
		startTime, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, err
		}
		e.StartTime = &startTime
	}

	if r.EndTime != nil {
		endTime, err := types.NewTimeStringFromString(*r.EndTime)
		if err != nil {
			return nil, err
		}
		e.EndTime = &endTime
	}

	return e, nil
}

// FromDomainException конвертирует domain исключение в HTTP response
func FromDomainException(e *domain.AvailabilityException) *ExceptionResponse {
	resp := &ExceptionResponse{
		ID:         e.ID,
		ProviderID: e.ProviderID,
		Date:       e.Date.Format(domain.DateFormat),
		Kind:       string(e.Kind),
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}

	if e.StartTime != nil {
		startTime := e.StartTime.String()
		resp.StartTime = &startTime
	}
	if e.EndTime != nil {
		endTime := e.EndTime.String()
		resp.EndTime = &endTime
	}

	return resp
}
