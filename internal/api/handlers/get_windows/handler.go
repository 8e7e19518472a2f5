package get_windows

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
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

// Handle GET /api/v1/providers/{providerId}/windows
// Query params: date (optional, YYYY-MM-DD). С датой возвращается итоговая
// доступность на дату (окна с учетом исключений), без даты - повторяющееся
// недельное расписание.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/windows - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		windows, err := h.service.GetWindows(r.Context(), providerID)
		if err != nil {
			h.logger.Error("GET /providers/{id}/windows - Failed to get windows: provider_id=%d, error=%v",
				providerID, err)
			handlers.RespondInternalError(w)
			return
		}

		h.logger.Info("GET /providers/{id}/windows - Retrieved %d recurring windows: provider_id=%d",
			len(windows), providerID)
		handlers.RespondJSON(w, http.StatusOK, FromDomainWindows(providerID, windows))
		return
	}

	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/windows - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	ranges, err := h.service.ResolveWindows(r.Context(), providerID, date)
	if err != nil {
		h.logger.Error("GET /providers/{id}/windows - Failed to resolve windows: provider_id=%d, date=%s, error=%v",
			providerID, dateStr, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/windows - Resolved %d windows: provider_id=%d, date=%s",
		len(ranges), providerID, dateStr)
	handlers.RespondJSON(w, http.StatusOK, FromDomainRanges(providerID, dateStr, ranges))
}
