package worker

import (
	"context"
	"time"
)

// HoldExpirer интерфейс для снятия истекших холдов
type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (int, error)
}

// OfferExpirer интерфейс для снятия истекших офферов листа ожидания
type OfferExpirer interface {
	ExpireOffers(ctx context.Context) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Sweeper периодически снимает истекшие холды и офферы.
// Освобожденная емкость уходит листу ожидания внутри самих операций
// снятия, sweeper только задает ритм.
type Sweeper struct {
	holds    HoldExpirer
	offers   OfferExpirer
	interval time.Duration
	logger   Logger
}

// NewSweeper создает новый экземпляр sweeper
func NewSweeper(holds HoldExpirer, offers OfferExpirer, interval time.Duration, logger Logger) *Sweeper {
	return &Sweeper{
		holds:    holds,
		offers:   offers,
		interval: interval,
		logger:   logger,
	}
}

// Run запускает цикл очистки до отмены контекста.
// Первый проход выполняется сразу, чтобы подобрать истекшее за время простоя.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper: started with interval %s", s.interval)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expiredHolds, err := s.holds.ExpireHolds(ctx)
	if err != nil {
		s.logger.Error("Sweeper: failed to expire holds: %v", err)
	} else if expiredHolds > 0 {
		s.logger.Info("Sweeper: expired %d holds", expiredHolds)
	}

	expiredOffers, err := s.offers.ExpireOffers(ctx)
	if err != nil {
		s.logger.Error("Sweeper: failed to expire offers: %v", err)
	} else if expiredOffers > 0 {
		s.logger.Info("Sweeper: expired %d waitlist offers", expiredOffers)
	}
}
