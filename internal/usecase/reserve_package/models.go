package reserve_package

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на пакетную резервацию подряд идущих услуг
type Request struct {
	ClientID   int64            // ID клиента
	ProviderID int64            // ID провайдера
	LocationID int64            // ID локации провайдера
	ServiceIDs []int64          // Услуги пакета в порядке выполнения
	Date       time.Time        // Дата бронирования (без времени)
	StartTime  types.TimeString // Время начала первой услуги

	// InstantCapture - мгновенное списание всей суммы пакета
	InstantCapture bool

	Notes *string // Дополнительные заметки (опционально)
}

// Response модель ответа с консолидированным бронированием пакета
type Response struct {
	PackageKey string          // Ключ пакета
	Booking    *domain.Booking // Единое бронирование на весь пакет
}
