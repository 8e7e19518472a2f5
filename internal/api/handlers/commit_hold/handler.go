package commit_hold

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
)

const (
	msgInvalidHoldID      = "некорректный ID холда"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgHoldNotFound       = "холд не найден"
	msgHoldExpired        = "холд истек, выберите слот заново"
	msgAccessDenied       = "доступ запрещен"
	msgPaymentDeclined    = "платеж отклонен"
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

// Handle POST /api/v1/holds/{holdId}/commit
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /holds/{id}/commit - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	holdID, err := strconv.ParseInt(vars["holdId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /holds/{id}/commit - Invalid hold ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidHoldID)
		return
	}

	// Тело опционально: пустое тело означает предавторизацию без заметок
	var req CommitHoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("POST /holds/{id}/commit - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.ledger.Commit(r.Context(), holdID, ledger.CommitRequest{
		ClientID:       clientID,
		InstantCapture: req.InstantCapture,
		Notes:          req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrHoldNotFound):
			h.logger.Warn("POST /holds/{id}/commit - Hold not found: hold_id=%d", holdID)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, ledger.ErrHoldExpired):
			h.logger.Warn("POST /holds/{id}/commit - Hold expired: hold_id=%d, client_id=%d", holdID, clientID)
			handlers.RespondError(w, http.StatusGone, msgHoldExpired)

		case errors.Is(err, ledger.ErrAccessDenied):
			h.logger.Warn("POST /holds/{id}/commit - Access denied: hold_id=%d, client_id=%d", holdID, clientID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, ledger.ErrPaymentDeclined):
			h.logger.Warn("POST /holds/{id}/commit - Payment declined: hold_id=%d, client_id=%d", holdID, clientID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

		default:
			h.logger.Error("POST /holds/{id}/commit - Failed to commit hold: hold_id=%d, client_id=%d, error=%v",
				holdID, clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /holds/{id}/commit - Booking created: booking_id=%d, hold_id=%d, client_id=%d, status=%s",
		booking.ID, holdID, clientID, booking.Status)
	handlers.RespondJSON(w, http.StatusCreated, bookingModels.FromDomainBooking(booking))
}
