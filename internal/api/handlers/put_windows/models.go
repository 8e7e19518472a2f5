package put_windows

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// WindowRequest HTTP модель повторяющегося окна
type WindowRequest struct {
	Weekday   int    `json:"weekday"` // 0 = Sunday ... 6 = Saturday
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ReplaceWindowsRequest HTTP request model: полное недельное расписание
type ReplaceWindowsRequest struct {
	Windows []WindowRequest `json:"windows"`
}

// ToDomainWindows конвертирует HTTP запрос в domain окна
func (r *ReplaceWindowsRequest) ToDomainWindows(providerID int64) ([]*domain.AvailabilityWindow, error) {
	windows := make([]*domain.AvailabilityWindow, 0, len(r.Windows))

	for _, w := range r.Windows {
		startTime, err := types.NewTimeStringFromString(w.StartTime)
		if err != nil {
			return nil, err
		}

		endTime, err := types.NewTimeStringFromString(w.EndTime)
		if err != nil {
			return nil, err
		}

		windows = append(windows, &domain.AvailabilityWindow{
			ProviderID: providerID,
			Weekday:    time.Weekday(w.Weekday),
			StartTime:  startTime,
			EndTime:    endTime,
			Recurring:  true,
		})
	}

	return windows, nil
}
