package update_provider_config

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/config"
)

const (
	msgInvalidProviderID  = "некорректный ID провайдера"
	msgInvalidConfigID    = "некорректный ID конфигурации"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "конфигурация не найдена"
	msgProviderNotFound   = "провайдер не найден"
	msgLocationNotFound   = "локация не найдена"
	msgServiceNotFound    = "услуга не найдена"
	msgInvalidData        = "некорректные данные конфигурации"
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

// Handle PUT /api/v1/providers/{providerId}/config
// Upsert: конфигурация уровня (providerId, locationId, serviceId)
// обновляется, если уже существует, иначе создается.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		h.logger.Warn("PUT /providers/{id}/config - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /providers/{id}/config - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	var req UpsertConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /providers/{id}/config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	existing, err := h.service.GetExact(r.Context(), providerID, req.LocationID, req.ServiceID)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		h.logger.Error("PUT /providers/{id}/config - Failed to look up config: provider_id=%d, error=%v",
			providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	if existing != nil {
		result, err := h.service.Update(r.Context(), existing.ID, req.ToUpdateRequest())
		if err != nil {
			h.respondServiceError(w, r, providerID, err)
			return
		}

		h.logger.Info("PUT /providers/{id}/config - Config updated: provider_id=%d, config_id=%d",
			providerID, result.ID)
		handlers.RespondJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.service.Create(r.Context(), req.ToCreateRequest(providerID))
	if err != nil {
		h.respondServiceError(w, r, providerID, err)
		return
	}

	h.logger.Info("PUT /providers/{id}/config - Config created: provider_id=%d, config_id=%d",
		providerID, result.ID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// HandleDelete DELETE /api/v1/providers/{providerId}/configs/{configId}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		h.logger.Warn("DELETE /providers/{id}/configs/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	configID, err := strconv.ParseInt(vars["configId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /providers/{id}/configs/{id} - Invalid config ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidConfigID)
		return
	}

	if err := h.service.Delete(r.Context(), configID); err != nil {
		switch {
		case errors.Is(err, config.ErrConfigNotFound):
			h.logger.Warn("DELETE /providers/{id}/configs/{id} - Config not found: config_id=%d", configID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("DELETE /providers/{id}/configs/{id} - Failed to delete config: config_id=%d, error=%v",
				configID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /providers/{id}/configs/{id} - Config deleted: config_id=%d", configID)
	handlers.RespondNoContent(w)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, providerID int64, err error) {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		h.logger.Warn("%s %s - Config not found: provider_id=%d", r.Method, r.URL.Path, providerID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, config.ErrProviderNotFound):
		h.logger.Warn("%s %s - Provider not found: provider_id=%d", r.Method, r.URL.Path, providerID)
		handlers.RespondNotFound(w, msgProviderNotFound)

	case errors.Is(err, config.ErrLocationNotFound):
		h.logger.Warn("%s %s - Location not found: provider_id=%d", r.Method, r.URL.Path, providerID)
		handlers.RespondNotFound(w, msgLocationNotFound)

	case errors.Is(err, config.ErrServiceNotFound):
		h.logger.Warn("%s %s - Service not found: provider_id=%d", r.Method, r.URL.Path, providerID)
		handlers.RespondNotFound(w, msgServiceNotFound)

	case errors.Is(err, config.ErrInvalidInput):
		h.logger.Warn("%s %s - Invalid data: provider_id=%d, error=%v", r.Method, r.URL.Path, providerID, err)
		handlers.RespondBadRequest(w, msgInvalidData)

	default:
		h.logger.Error("%s %s - Config operation failed: provider_id=%d, error=%v", r.Method, r.URL.Path, providerID, err)
		handlers.RespondInternalError(w)
	}
}
