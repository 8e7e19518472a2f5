package get_provider_config

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
	msgInvalidLocationID = "некорректный ID локации"
	msgInvalidServiceID  = "некорректный ID услуги"
)

type Handler struct {
	service ConfigService
	logger  Logger
}

func NewHandler(service ConfigService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/config
// Query params: locationId, serviceId (optional). Возвращает действующую
// конфигурацию с учетом иерархии; при отсутствии - значения по умолчанию.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/config - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	var locationID, serviceID *int64
	query := r.URL.Query()

	if locationIDStr := query.Get("locationId"); locationIDStr != "" {
		id, err := strconv.ParseInt(locationIDStr, 10, 64)
		if err != nil {
			h.logger.Warn("GET /providers/{id}/config - Invalid location ID: %v", err)
			handlers.RespondBadRequest(w, msgInvalidLocationID)
			return
		}
		locationID = &id
	}

	if serviceIDStr := query.Get("serviceId"); serviceIDStr != "" {
		id, err := strconv.ParseInt(serviceIDStr, 10, 64)
		if err != nil {
			h.logger.Warn("GET /providers/{id}/config - Invalid service ID: %v", err)
			handlers.RespondBadRequest(w, msgInvalidServiceID)
			return
		}
		serviceID = &id
	}

	result, err := h.service.GetEffective(r.Context(), providerID, locationID, serviceID)
	if err != nil {
		h.logger.Error("GET /providers/{id}/config - Failed to get config: provider_id=%d, error=%v",
			providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/config - Config retrieved: provider_id=%d, config_id=%d",
		providerID, result.ID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// HandleList GET /api/v1/providers/{providerId}/configs
// Возвращает все конфигурации провайдера по всем уровням иерархии.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/configs - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	result, err := h.service.GetAllByProvider(r.Context(), providerID)
	if err != nil {
		h.logger.Error("GET /providers/{id}/configs - Failed to list configs: provider_id=%d, error=%v",
			providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/configs - Retrieved %d configs: provider_id=%d", result.Total, providerID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
