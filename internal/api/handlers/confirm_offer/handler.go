package confirm_offer

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
	msgInvalidEntryID     = "некорректный ID записи листа ожидания"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgEntryNotFound      = "запись листа ожидания не найдена"
	msgOfferExpired       = "срок действия предложения истек"
	msgOfferConflict      = "предложение уже обработано"
	msgAccessDenied       = "доступ запрещен"
	msgSlotUnavailable    = "предложенный слот уже занят"
	msgPaymentDeclined    = "платеж отклонен"
)

// ConfirmOfferRequest HTTP request model
type ConfirmOfferRequest struct {
	InstantCapture bool    `json:"instantCapture"`
	Notes          *string `json:"notes,omitempty"`
}

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

// Handle POST /api/v1/waitlist/{entryId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /waitlist/{id}/confirm - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	entryID, err := strconv.ParseInt(vars["entryId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /waitlist/{id}/confirm - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	var req ConfirmOfferRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("POST /waitlist/{id}/confirm - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.ledger.ConfirmOffer(r.Context(), entryID, ledger.CommitRequest{
		ClientID:       clientID,
		InstantCapture: req.InstantCapture,
		Notes:          req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrWaitlistEntryNotFound):
			h.logger.Warn("POST /waitlist/{id}/confirm - Entry not found: entry_id=%d", entryID)
			handlers.RespondNotFound(w, msgEntryNotFound)

		case errors.Is(err, ledger.ErrOfferExpired):
			h.logger.Warn("POST /waitlist/{id}/confirm - Offer expired: entry_id=%d, client_id=%d", entryID, clientID)
			handlers.RespondError(w, http.StatusGone, msgOfferExpired)

		case errors.Is(err, ledger.ErrOfferConflict):
			h.logger.Warn("POST /waitlist/{id}/confirm - Offer conflict: entry_id=%d, client_id=%d", entryID, clientID)
			handlers.RespondConflict(w, msgOfferConflict)

		case errors.Is(err, ledger.ErrAccessDenied):
			h.logger.Warn("POST /waitlist/{id}/confirm - Access denied: entry_id=%d, client_id=%d", entryID, clientID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, ledger.ErrSlotUnavailable):
			h.logger.Warn("POST /waitlist/{id}/confirm - Slot unavailable: entry_id=%d", entryID)
			handlers.RespondConflict(w, msgSlotUnavailable)

		case errors.Is(err, ledger.ErrPaymentDeclined):
			h.logger.Warn("POST /waitlist/{id}/confirm - Payment declined: entry_id=%d, client_id=%d", entryID, clientID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

		default:
			h.logger.Error("POST /waitlist/{id}/confirm - Failed to confirm offer: entry_id=%d, client_id=%d, error=%v",
				entryID, clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist/{id}/confirm - Booking created: booking_id=%d, entry_id=%d, client_id=%d",
		booking.ID, entryID, clientID)
	handlers.RespondJSON(w, http.StatusCreated, bookingModels.FromDomainBooking(booking))
}
