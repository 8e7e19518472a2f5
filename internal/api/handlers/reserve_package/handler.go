package reserve_package

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
	reservePackage "github.com/m04kA/SMC-SchedulingService/internal/usecase/reserve_package"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgServiceNotFound    = "услуга не найдена"
	msgPartialFailure     = "не удалось зарезервировать все слоты пакета"
	msgPaymentDeclined    = "платеж отклонен"
)

type Handler struct {
	useCase ReservePackageUseCase
	logger  Logger
}

func NewHandler(useCase ReservePackageUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/packages
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /packages - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ReservePackageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /packages - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(clientID)
	if err != nil {
		h.logger.Warn("POST /packages - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var partial *reservePackage.PartialFailureError

		switch {
		case errors.As(err, &partial):
			h.logger.Warn("POST /packages - Partial failure at index %d: client_id=%d, service_id=%d, reason=%v",
				partial.FailedIndex, clientID, partial.ServiceID, partial.Err)
			handlers.RespondJSON(w, http.StatusConflict, PartialFailureResponse{
				Error:       msgPartialFailure,
				FailedIndex: partial.FailedIndex,
				ServiceID:   partial.ServiceID,
				Reason:      partial.Err.Error(),
			})

		case errors.Is(err, reservePackage.ErrServiceNotFound):
			h.logger.Warn("POST /packages - Service not found: client_id=%d", clientID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, ledger.ErrPaymentDeclined):
			h.logger.Warn("POST /packages - Payment declined: client_id=%d", clientID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

		case errors.Is(err, reservePackage.ErrInvalidInput):
			h.logger.Warn("POST /packages - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /packages - Failed to reserve package: client_id=%d, error=%v", clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /packages - Package booked: booking_id=%d, package_key=%s, client_id=%d, services=%d",
		result.Booking.ID, result.PackageKey, clientID, len(req.ServiceIDs))
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
