package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidPolicy возвращается при некорректной конфигурации тарифов отмены
	ErrInvalidPolicy = errors.New("domain: invalid cancellation policy")
)

// CancellationTier тариф отмены: бронирования, отменяемые не позднее чем за
// MinHoursBefore часов до начала, облагаются комиссией FeePercent.
type CancellationTier struct {
	MinHoursBefore float64
	FeePercent     float64
}

// CancellationPolicy упорядоченный набор тарифов отмены, покрывающий [0, ∞).
// Пример: [{24, 0}, {4, 50}, {0, 100}] - бесплатно за 24 часа и ранее,
// 50% от 4 до 24 часов, 100% менее чем за 4 часа.
type CancellationPolicy struct {
	Tiers []CancellationTier
}

// Validate проверяет, что тарифы покрывают [0, ∞) без пропусков:
// пороги не дублируются, есть тариф с порогом 0, проценты в [0, 100]
func (p CancellationPolicy) Validate() error {
	if len(p.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers configured", ErrInvalidPolicy)
	}

	hasZero := false
	seen := make(map[float64]bool, len(p.Tiers))

	for _, tier := range p.Tiers {
		if tier.MinHoursBefore < 0 {
			return fmt.Errorf("%w: negative threshold %.2f", ErrInvalidPolicy, tier.MinHoursBefore)
		}
		if tier.FeePercent < 0 || tier.FeePercent > 100 {
			return fmt.Errorf("%w: fee percent %.2f out of [0, 100]", ErrInvalidPolicy, tier.FeePercent)
		}
		if seen[tier.MinHoursBefore] {
			return fmt.Errorf("%w: duplicate threshold %.2f", ErrInvalidPolicy, tier.MinHoursBefore)
		}
		seen[tier.MinHoursBefore] = true
		if tier.MinHoursBefore == 0 {
			hasZero = true
		}
	}

	if !hasZero {
		return fmt.Errorf("%w: tiers must cover [0, ∞): missing zero threshold", ErrInvalidPolicy)
	}

	return nil
}

// FeePercent возвращает процент комиссии для отмены за hoursBefore часов
// до начала бронирования. Выбирается тариф с наибольшим порогом, не
// превышающим hoursBefore: граница принадлежит более дешевому (раннему)
// тарифу - отмена ровно за 24 часа при пороге 24 бесплатна.
func (p CancellationPolicy) FeePercent(hoursBefore float64) float64 {
	if hoursBefore < 0 {
		hoursBefore = 0
	}

	tiers := make([]CancellationTier, len(p.Tiers))
	copy(tiers, p.Tiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinHoursBefore > tiers[j].MinHoursBefore
	})

	for _, tier := range tiers {
		if hoursBefore >= tier.MinHoursBefore {
			return tier.FeePercent
		}
	}

	// Недостижимо при валидной политике (есть порог 0)
	return tiers[len(tiers)-1].FeePercent
}

// NoShowEvent факт неявки клиента на бронирование
type NoShowEvent struct {
	ID         int64
	ClientID   int64
	BookingID  int64
	OccurredAt time.Time
}

// BlockStatus статус блокировки клиента за повторные неявки
type BlockStatus struct {
	Blocked     bool
	ActiveUntil time.Time
	NoShowCount int
}
