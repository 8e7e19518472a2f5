package ledger

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// HoldRequest запрос на холд слота (первая фаза резервации)
type HoldRequest struct {
	ClientID   int64
	ProviderID int64
	LocationID int64
	ServiceID  int64

	Date      time.Time
	StartTime types.TimeString

	// PackageKey группирует холды пакетной резервации
	PackageKey *string
}

// CommitRequest запрос на конвертацию холда в бронирование
type CommitRequest struct {
	ClientID int64

	// InstantCapture - мгновенное списание (бронирование сразу confirmed);
	// иначе предавторизация и статус pending_payment до подтверждения оплаты
	InstantCapture bool

	Notes *string
}

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	ActorID     int64
	CancelledBy domain.CancelledBy
	Reason      string
}
