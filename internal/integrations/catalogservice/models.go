package catalogservice

// Location локация провайдера из CatalogService
type Location struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

// Provider модель провайдера из CatalogService
type Provider struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Locations    []Location `json:"locations"`
	Capabilities []string   `json:"capabilities"` // Теги ресурсов, которыми провайдер располагает
	IsActive     bool       `json:"is_active"`
}

// Service модель услуги из CatalogService.
// Длительность и буферы услуги являются источником истины для планировщика.
type Service struct {
	ID                  int64   `json:"id"`
	ProviderID          int64   `json:"provider_id"`
	Name                string  `json:"name"`
	DurationMinutes     int     `json:"duration_minutes"`
	BufferBeforeMinutes int     `json:"buffer_before_minutes"`
	BufferAfterMinutes  int     `json:"buffer_after_minutes"`
	Capability          string  `json:"capability"` // Требуемый тег ресурса (пустая строка - без требований)
	Price               float64 `json:"price"`
	IsActive            bool    `json:"is_active"`
}

// HasLocation проверяет, принадлежит ли локация провайдеру
func (p *Provider) HasLocation(locationID int64) bool {
	for _, loc := range p.Locations {
		if loc.ID == locationID {
			return true
		}
	}
	return false
}

// HasCapability проверяет, располагает ли провайдер требуемым тегом ресурса
func (p *Provider) HasCapability(capability string) bool {
	if capability == "" {
		return true
	}
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// ErrorResponse модель ошибки от CatalogService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
