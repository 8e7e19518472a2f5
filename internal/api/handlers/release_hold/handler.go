package release_hold

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
)

const (
	msgInvalidHoldID = "некорректный ID холда"
	msgMissingUserID = "отсутствует ID пользователя"
	msgHoldNotFound  = "холд не найден"
	msgAccessDenied  = "доступ запрещен"
)

type Handler struct {
	ledger BookingLedger
	logger Logger
}

func NewHandler(bookingLedger BookingLedger, logger Logger) *Handler {
	return &Handler{
		ledger: bookingLedger,
		logger: logger,
	}
}

// Handle DELETE /api/v1/holds/{holdId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /holds/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	holdID, err := strconv.ParseInt(vars["holdId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /holds/{id} - Invalid hold ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidHoldID)
		return
	}

	if err := h.ledger.Release(r.Context(), holdID, clientID); err != nil {
		switch {
		case errors.Is(err, ledger.ErrHoldNotFound):
			h.logger.Warn("DELETE /holds/{id} - Hold not found: hold_id=%d", holdID)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, ledger.ErrAccessDenied):
			h.logger.Warn("DELETE /holds/{id} - Access denied: hold_id=%d, client_id=%d", holdID, clientID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("DELETE /holds/{id} - Failed to release hold: hold_id=%d, client_id=%d, error=%v",
				holdID, clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /holds/{id} - Hold released: hold_id=%d, client_id=%d", holdID, clientID)
	handlers.RespondNoContent(w)
}
