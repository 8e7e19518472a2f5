package get_windows

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// WindowResponse HTTP модель повторяющегося окна
type WindowResponse struct {
	ID        int64  `json:"id"`
	Weekday   int    `json:"weekday"` // 0 = Sunday ... 6 = Saturday
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// WindowsResponse список повторяющихся окон провайдера
type WindowsResponse struct {
	ProviderID int64            `json:"providerId"`
	Windows    []WindowResponse `json:"windows"`
}

// RangeResponse HTTP модель разрешенного интервала на дату
type RangeResponse struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ResolvedResponse итоговая доступность на дату с учетом исключений
type ResolvedResponse struct {
	ProviderID int64           `json:"providerId"`
	Date       string          `json:"date"`
	Windows    []RangeResponse `json:"windows"`
}

// FromDomainWindows конвертирует повторяющиеся окна в HTTP response
func FromDomainWindows(providerID int64, windows []*domain.AvailabilityWindow) *WindowsResponse {
	result := make([]WindowResponse, 0, len(windows))
	for _, w := range windows {
		result = append(result, WindowResponse{
			ID:        w.ID,
			Weekday:   int(w.Weekday),
			StartTime: w.StartTime.String(),
			EndTime:   w.EndTime.String(),
		})
	}

	return &WindowsResponse{
		ProviderID: providerID,
		Windows:    result,
	}
}

// FromDomainRanges конвертирует разрешенные интервалы в HTTP response
func FromDomainRanges(providerID int64, date string, ranges []domain.TimeRange) *ResolvedResponse {
	result := make([]RangeResponse, 0, len(ranges))
	for _, r := range ranges {
		result = append(result, RangeResponse{
			StartTime: r.Start.String(),
			EndTime:   r.End.String(),
		})
	}

	return &ResolvedResponse{
		ProviderID: providerID,
		Date:       date,
		Windows:    result,
	}
}
