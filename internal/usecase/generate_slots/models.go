package generate_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на генерацию доступных слотов
type Request struct {
	ClientID   int64     // ID клиента (для логирования, не влияет на результат)
	ProviderID int64     // ID провайдера
	LocationID int64     // ID локации провайдера
	ServiceID  int64     // ID услуги
	Date       time.Time // Дата генерации слотов (без времени)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date       time.Time              // Дата, на которую запрашивались слоты
	ProviderID int64                  // ID провайдера
	LocationID int64                  // ID локации
	ServiceID  int64                  // ID услуги
	Slots      []domain.AvailableSlot // Список слотов с остатком мест
}
