package create_hold

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotUnavailable    = "выбранный временной слот недоступен"
	msgOverbookingLimit   = "превышен лимит овербукинга для этого слота"
	msgClientBlocked      = "бронирование заблокировано из-за неявок"
	msgProviderNotFound   = "провайдер не найден"
	msgServiceNotFound    = "услуга не найдена"
	msgTooLateToBook      = "слишком поздно для бронирования этого слота"
	msgDateTooFar         = "дата бронирования слишком далеко в будущем"
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

// Handle POST /api/v1/holds
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /holds - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateHoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /holds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	ledgerReq, err := req.ToLedgerRequest(clientID)
	if err != nil {
		h.logger.Warn("POST /holds - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	hold, err := h.ledger.Hold(r.Context(), ledgerReq)
	if err != nil {
		var blocked *ledger.BlockedError

		switch {
		case errors.As(err, &blocked):
			h.logger.Warn("POST /holds - Client blocked: client_id=%d, until=%s",
				clientID, blocked.ActiveUntil.Format(time.RFC3339))
			handlers.RespondJSON(w, http.StatusForbidden, BlockedResponse{
				Error:        msgClientBlocked,
				BlockedUntil: blocked.ActiveUntil.Format(time.RFC3339),
				NoShowCount:  blocked.NoShowCount,
			})

		case errors.Is(err, ledger.ErrOverbookingLimitExceeded):
			h.logger.Warn("POST /holds - Overbooking limit exceeded: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondConflict(w, msgOverbookingLimit)

		case errors.Is(err, ledger.ErrSlotUnavailable):
			h.logger.Warn("POST /holds - Slot unavailable: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondConflict(w, msgSlotUnavailable)

		case errors.Is(err, ledger.ErrProviderNotFound):
			h.logger.Warn("POST /holds - Provider not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, ledger.ErrServiceNotFound):
			h.logger.Warn("POST /holds - Service not found: service_id=%d", req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, ledger.ErrTooLateToBook):
			h.logger.Warn("POST /holds - Too late to book: client_id=%d", clientID)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, ledger.ErrDateTooFar):
			h.logger.Warn("POST /holds - Date too far: client_id=%d", clientID)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, ledger.ErrInvalidInput):
			h.logger.Warn("POST /holds - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /holds - Failed to create hold: client_id=%d, provider_id=%d, error=%v",
				clientID, req.ProviderID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /holds - Hold created: hold_id=%d, client_id=%d, provider_id=%d, expires_at=%s",
		hold.ID, clientID, req.ProviderID, hold.ExpiresAt.Format(time.RFC3339))
	handlers.RespondJSON(w, http.StatusCreated, FromDomainHold(hold))
}
