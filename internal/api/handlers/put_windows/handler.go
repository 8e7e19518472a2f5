package put_windows

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
)

const (
	msgInvalidProviderID  = "некорректный ID провайдера"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается HH:MM"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidWindow      = "некорректное окно доступности"
	msgOverlappingWindows = "окна доступности пересекаются"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/providers/{providerId}/windows
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		h.logger.Warn("PUT /providers/{id}/windows - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /providers/{id}/windows - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	var req ReplaceWindowsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /providers/{id}/windows - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	windows, err := req.ToDomainWindows(providerID)
	if err != nil {
		h.logger.Warn("PUT /providers/{id}/windows - Failed to parse windows: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	if err := h.service.ReplaceWindows(r.Context(), providerID, windows); err != nil {
		switch {
		case errors.Is(err, availability.ErrOverlappingWindows):
			h.logger.Warn("PUT /providers/{id}/windows - Overlapping windows: provider_id=%d", providerID)
			handlers.RespondBadRequest(w, msgOverlappingWindows)

		case errors.Is(err, availability.ErrInvalidWindow):
			h.logger.Warn("PUT /providers/{id}/windows - Invalid window: provider_id=%d, error=%v", providerID, err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		default:
			h.logger.Error("PUT /providers/{id}/windows - Failed to replace windows: provider_id=%d, error=%v",
				providerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /providers/{id}/windows - Windows replaced: provider_id=%d, count=%d",
		providerID, len(windows))
	handlers.RespondNoContent(w)
}
