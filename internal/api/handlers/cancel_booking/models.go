package cancel_booking

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancelledBy string `json:"cancelledBy"` // "client" | "provider"
	Reason      string `json:"reason"`
}

// ToLedgerRequest конвертирует HTTP запрос в модель леджера
func (r *CancelBookingRequest) ToLedgerRequest(actorID int64) (ledger.CancelRequest, error) {
	var cancelledBy domain.CancelledBy

	switch r.CancelledBy {
	case string(domain.CancelledByClient), "":
		cancelledBy = domain.CancelledByClient
	case string(domain.CancelledByProvider):
		cancelledBy = domain.CancelledByProvider
	default:
		return ledger.CancelRequest{}, fmt.Errorf("unknown cancelledBy value: %q", r.CancelledBy)
	}

	return ledger.CancelRequest{
		ActorID:     actorID,
		CancelledBy: cancelledBy,
		Reason:      r.Reason,
	}, nil
}
