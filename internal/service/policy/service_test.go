package policy

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var policyNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeNoShowRepo struct {
	events []*domain.NoShowEvent
	nextID int64
}

func (r *fakeNoShowRepo) Create(ctx context.Context, e *domain.NoShowEvent) (*domain.NoShowEvent, error) {
	r.nextID++
	copied := *e
	copied.ID = r.nextID
	r.events = append(r.events, &copied)
	return &copied, nil
}

func (r *fakeNoShowRepo) GetByClientSince(ctx context.Context, clientID int64, since time.Time) ([]*domain.NoShowEvent, error) {
	var out []*domain.NoShowEvent
	for _, e := range r.events {
		if e.ClientID != clientID || e.OccurredAt.Before(since) {
			continue
		}
		out = append(out, e)
	}
	// От новых к старым, как в репозитории
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

var testTiers = domain.CancellationPolicy{
	Tiers: []domain.CancellationTier{
		{MinHoursBefore: 24, FeePercent: 0},
		{MinHoursBefore: 4, FeePercent: 50},
		{MinHoursBefore: 0, FeePercent: 100},
	},
}

// newPolicyFixture собирает сервис политик: порог 3 неявки за 90 дней,
// блокировка на 7 дней
func newPolicyFixture(t *testing.T) (*Service, *fakeNoShowRepo, *fakeClock) {
	t.Helper()
	repo := &fakeNoShowRepo{}
	clock := &fakeClock{now: policyNow}
	svc, err := NewService(testTiers, 3, 90, 7, repo, clock, nopLogger{})
	require.NoError(t, err)
	return svc, repo, clock
}

// seedNoShows добавляет клиенту неявки в заданные моменты
func seedNoShows(repo *fakeNoShowRepo, clientID int64, at ...time.Time) {
	for i, occurred := range at {
		repo.events = append(repo.events, &domain.NoShowEvent{
			ID:         int64(100 + i),
			ClientID:   clientID,
			BookingID:  int64(i + 1),
			OccurredAt: occurred,
		})
	}
}

// TestNewService тестирует валидацию конфигурации при создании сервиса
func TestNewService(t *testing.T) {
	tests := []struct {
		name      string
		tiers     domain.CancellationPolicy
		threshold int
		wantErr   bool
	}{
		{
			name:      "valid configuration",
			tiers:     testTiers,
			threshold: 3,
		},
		{
			name: "grid without zero tier",
			tiers: domain.CancellationPolicy{
				Tiers: []domain.CancellationTier{
					{MinHoursBefore: 24, FeePercent: 0},
				},
			},
			threshold: 3,
			wantErr:   true,
		},
		{
			name:      "empty grid",
			tiers:     domain.CancellationPolicy{},
			threshold: 3,
			wantErr:   true,
		},
		{
			name:      "zero threshold",
			tiers:     testTiers,
			threshold: 0,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.tiers, tt.threshold, 90, 7, &fakeNoShowRepo{}, &fakeClock{now: policyNow}, nopLogger{})

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestComputeFee тестирует расчет комиссии относительно начала бронирования
func TestComputeFee(t *testing.T) {
	booking := &domain.Booking{
		ID:          1,
		BookingDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   types.TimeString("10:00"),
	}

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{
			name: "more than a day ahead is free",
			now:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "exactly 24 hours is still free",
			now:  time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "under a day costs half",
			now:  time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC),
			want: 50,
		},
		{
			name: "exactly 4 hours costs half",
			now:  time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
			want: 50,
		},
		{
			name: "last minute costs everything",
			now:  time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
			want: 100,
		},
		{
			name: "after the start costs everything",
			now:  time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, clock := newPolicyFixture(t)
			clock.now = tt.now

			fee, err := svc.ComputeFee(booking)

			require.NoError(t, err)
			assert.Equal(t, tt.want, fee)
		})
	}
}

// TestRecordNoShow тестирует фиксацию события неявки
func TestRecordNoShow(t *testing.T) {
	svc, repo, _ := newPolicyFixture(t)

	err := svc.RecordNoShow(context.Background(), 7, 42, policyNow)

	require.NoError(t, err)
	require.Len(t, repo.events, 1)
	assert.Equal(t, int64(7), repo.events[0].ClientID)
	assert.Equal(t, int64(42), repo.events[0].BookingID)
	assert.Equal(t, policyNow, repo.events[0].OccurredAt)
}

// TestBlockStatus тестирует блокировку за неявки в rolling window
func TestBlockStatus(t *testing.T) {
	t.Run("clean client is not blocked", func(t *testing.T) {
		svc, _, _ := newPolicyFixture(t)

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.False(t, status.Blocked)
		assert.Equal(t, 0, status.NoShowCount)
	})

	t.Run("below threshold is not blocked", func(t *testing.T) {
		svc, repo, _ := newPolicyFixture(t)
		seedNoShows(repo, 7,
			policyNow.Add(-24*time.Hour),
			policyNow.Add(-48*time.Hour),
		)

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.False(t, status.Blocked)
		assert.Equal(t, 2, status.NoShowCount)
	})

	t.Run("threshold blocks from the latest event", func(t *testing.T) {
		svc, repo, _ := newPolicyFixture(t)
		latest := policyNow.Add(-24 * time.Hour)
		seedNoShows(repo, 7,
			latest,
			policyNow.Add(-10*24*time.Hour),
			policyNow.Add(-20*24*time.Hour),
		)

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.True(t, status.Blocked)
		assert.Equal(t, 3, status.NoShowCount)
		assert.Equal(t, latest.Add(7*24*time.Hour), status.ActiveUntil)
	})

	t.Run("events outside lookback do not count", func(t *testing.T) {
		svc, repo, _ := newPolicyFixture(t)
		seedNoShows(repo, 7,
			policyNow.Add(-24*time.Hour),
			policyNow.Add(-48*time.Hour),
			policyNow.Add(-100*24*time.Hour),
		)

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.False(t, status.Blocked)
		assert.Equal(t, 2, status.NoShowCount)
	})

	t.Run("block lapses after block window", func(t *testing.T) {
		svc, repo, _ := newPolicyFixture(t)
		seedNoShows(repo, 7,
			policyNow.Add(-10*24*time.Hour),
			policyNow.Add(-15*24*time.Hour),
			policyNow.Add(-20*24*time.Hour),
		)

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.False(t, status.Blocked)
		assert.Equal(t, 3, status.NoShowCount)
	})

	t.Run("repeat no-show extends the block", func(t *testing.T) {
		svc, repo, _ := newPolicyFixture(t)
		seedNoShows(repo, 7,
			policyNow.Add(-20*24*time.Hour),
			policyNow.Add(-15*24*time.Hour),
			policyNow.Add(-10*24*time.Hour),
		)
		require.NoError(t, svc.RecordNoShow(context.Background(), 7, 99, policyNow.Add(-time.Hour)))

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.True(t, status.Blocked)
		assert.Equal(t, 4, status.NoShowCount)
		assert.Equal(t, policyNow.Add(-time.Hour).Add(7*24*time.Hour), status.ActiveUntil)
	})

	t.Run("other clients are unaffected", func(t *testing.T) {
		svc, repo, _ := newPolicyFixture(t)
		seedNoShows(repo, 8,
			policyNow.Add(-24*time.Hour),
			policyNow.Add(-48*time.Hour),
			policyNow.Add(-72*time.Hour),
		)

		status, err := svc.BlockStatus(context.Background(), 7)

		require.NoError(t, err)
		assert.False(t, status.Blocked)
		assert.Equal(t, 0, status.NoShowCount)
	})
}

// TestIsBlocked тестирует краткую проверку блокировки
func TestIsBlocked(t *testing.T) {
	svc, repo, _ := newPolicyFixture(t)
	seedNoShows(repo, 7,
		policyNow.Add(-24*time.Hour),
		policyNow.Add(-48*time.Hour),
		policyNow.Add(-72*time.Hour),
	)

	blocked, err := svc.IsBlocked(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, blocked)
}
