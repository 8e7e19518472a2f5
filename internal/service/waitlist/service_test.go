package waitlist

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	waitlistNow  = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	waitlistDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeRepo struct {
	entries        map[int64]*domain.WaitlistEntry
	nextID         int64
	nextSeq        int64
	offerConflicts map[int64]bool
	expireConflict bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		entries:        make(map[int64]*domain.WaitlistEntry),
		nextID:         1,
		nextSeq:        1,
		offerConflicts: make(map[int64]bool),
	}
}

func (r *fakeRepo) Create(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	copied := *e
	copied.ID = r.nextID
	copied.Seq = r.nextSeq
	r.nextID++
	r.nextSeq++
	r.entries[copied.ID] = &copied
	return &copied, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, waitlistRepo.ErrEntryNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeRepo) GetWaitingByProviderDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.WaitlistEntry, error) {
	var out []*domain.WaitlistEntry
	for _, e := range r.entries {
		if e.Status != domain.WaitlistWaiting || e.ProviderID != providerID || !e.DesiredDate.Equal(date) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.Before(out[j].RequestedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *fakeRepo) GetExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	var out []*domain.WaitlistEntry
	for id := int64(1); id < r.nextID; id++ {
		e, ok := r.entries[id]
		if !ok || !e.IsOfferExpired(now) {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) MarkOffered(ctx context.Context, id int64, offerStart types.TimeString, offerDuration int, offeredAt, expiresAt time.Time) error {
	if r.offerConflicts[id] {
		return waitlistRepo.ErrStatusConflict
	}
	e, ok := r.entries[id]
	if !ok {
		return waitlistRepo.ErrEntryNotFound
	}
	if e.Status != domain.WaitlistWaiting {
		return waitlistRepo.ErrStatusConflict
	}
	e.Status = domain.WaitlistOffered
	e.OfferStart = &offerStart
	e.OfferDuration = &offerDuration
	e.OfferedAt = &offeredAt
	e.OfferExpiresAt = &expiresAt
	return nil
}

func (r *fakeRepo) MarkExpired(ctx context.Context, id int64) error {
	if r.expireConflict {
		return waitlistRepo.ErrStatusConflict
	}
	e, ok := r.entries[id]
	if !ok {
		return waitlistRepo.ErrEntryNotFound
	}
	if e.Status != domain.WaitlistOffered {
		return waitlistRepo.ErrStatusConflict
	}
	e.Status = domain.WaitlistExpired
	return nil
}

type fakeAuditRepo struct {
	events []*domain.AuditEvent
}

func (r *fakeAuditRepo) Record(ctx context.Context, event *domain.AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeAuditRepo) has(eventType string) bool {
	for _, e := range r.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

type fakeNotifier struct {
	events []notify.Event
}

func (n *fakeNotifier) Dispatch(event notify.Event) {
	n.events = append(n.events, event)
}

func (n *fakeNotifier) byType(eventType string) []notify.Event {
	var out []notify.Event
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type waitlistFixture struct {
	svc      *Service
	repo     *fakeRepo
	audits   *fakeAuditRepo
	notifier *fakeNotifier
	clock    *fakeClock
}

func newWaitlistFixture() *waitlistFixture {
	f := &waitlistFixture{
		repo:     newFakeRepo(),
		audits:   &fakeAuditRepo{},
		notifier: &fakeNotifier{},
		clock:    &fakeClock{now: waitlistNow},
	}
	f.svc = NewService(f.repo, f.audits, f.notifier, &fakeTxManager{},
		f.clock, 15*time.Minute, nopLogger{})
	return f
}

// seedWaiting ставит клиента в очередь напрямую, с заданным временем заявки
func (f *waitlistFixture) seedWaiting(clientID int64, windowStart, windowEnd string, requestedAt time.Time) *domain.WaitlistEntry {
	created, _ := f.repo.Create(context.Background(), &domain.WaitlistEntry{
		ClientID:    clientID,
		ProviderID:  1,
		LocationID:  10,
		ServiceID:   100,
		DesiredDate: waitlistDate,
		WindowStart: types.TimeString(windowStart),
		WindowEnd:   types.TimeString(windowEnd),
		Status:      domain.WaitlistWaiting,
		RequestedAt: requestedAt,
	})
	return created
}

// TestJoin тестирует постановку клиента в очередь
func TestJoin(t *testing.T) {
	t.Run("queues client as waiting", func(t *testing.T) {
		f := newWaitlistFixture()

		created, err := f.svc.Join(context.Background(), &domain.WaitlistEntry{
			ClientID:    7,
			ProviderID:  1,
			LocationID:  10,
			ServiceID:   100,
			DesiredDate: waitlistDate,
			WindowStart: types.TimeString("09:00"),
			WindowEnd:   types.TimeString("13:00"),
			RequestedAt: waitlistNow,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, domain.WaitlistWaiting, created.Status)
		assert.True(t, f.audits.has(domain.AuditWaitlistJoined))
	})

	t.Run("inverted desired window", func(t *testing.T) {
		f := newWaitlistFixture()

		_, err := f.svc.Join(context.Background(), &domain.WaitlistEntry{
			ClientID:    7,
			ProviderID:  1,
			DesiredDate: waitlistDate,
			WindowStart: types.TimeString("13:00"),
			WindowEnd:   types.TimeString("09:00"),
		})

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, f.repo.entries)
	})
}

// TestGetEntry тестирует чтение записи листа ожидания
func TestGetEntry(t *testing.T) {
	t.Run("returns entry", func(t *testing.T) {
		f := newWaitlistFixture()
		seeded := f.seedWaiting(7, "09:00", "13:00", waitlistNow)

		entry, err := f.svc.GetEntry(context.Background(), seeded.ID)

		require.NoError(t, err)
		assert.Equal(t, seeded.ID, entry.ID)
	})

	t.Run("unknown entry", func(t *testing.T) {
		f := newWaitlistFixture()

		_, err := f.svc.GetEntry(context.Background(), 42)

		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

// TestOnRelease тестирует выдачу оффера при освобождении ёмкости
func TestOnRelease(t *testing.T) {
	released := domain.TimeRange{
		Start: types.TimeString("10:00"),
		End:   types.TimeString("11:00"),
	}

	t.Run("offers to oldest matching entry only", func(t *testing.T) {
		f := newWaitlistFixture()
		second := f.seedWaiting(8, "09:00", "13:00", waitlistNow.Add(-time.Hour))
		first := f.seedWaiting(7, "09:00", "13:00", waitlistNow.Add(-2*time.Hour))

		err := f.svc.OnRelease(context.Background(), 1, waitlistDate, released, 60)

		require.NoError(t, err)

		winner := f.repo.entries[first.ID]
		assert.Equal(t, domain.WaitlistOffered, winner.Status)
		require.NotNil(t, winner.OfferStart)
		assert.Equal(t, types.TimeString("10:00"), *winner.OfferStart)
		require.NotNil(t, winner.OfferExpiresAt)
		assert.Equal(t, waitlistNow.Add(15*time.Minute), *winner.OfferExpiresAt)

		assert.Equal(t, domain.WaitlistWaiting, f.repo.entries[second.ID].Status)

		require.Len(t, f.notifier.events, 1)
		event := f.notifier.events[0]
		assert.Equal(t, notify.EventWaitlistOffer, event.Type)
		assert.Equal(t, int64(7), event.ClientID)
		require.NotNil(t, event.Deadline)
		assert.True(t, f.audits.has(domain.AuditWaitlistOffered))
	})

	t.Run("equal request time breaks tie by insertion order", func(t *testing.T) {
		f := newWaitlistFixture()
		requested := waitlistNow.Add(-time.Hour)
		first := f.seedWaiting(7, "09:00", "13:00", requested)
		second := f.seedWaiting(8, "09:00", "13:00", requested)

		err := f.svc.OnRelease(context.Background(), 1, waitlistDate, released, 60)

		require.NoError(t, err)
		assert.Equal(t, domain.WaitlistOffered, f.repo.entries[first.ID].Status)
		assert.Equal(t, domain.WaitlistWaiting, f.repo.entries[second.ID].Status)
	})

	t.Run("skips entries outside released range", func(t *testing.T) {
		f := newWaitlistFixture()
		outside := f.seedWaiting(7, "13:00", "15:00", waitlistNow.Add(-2*time.Hour))
		inside := f.seedWaiting(8, "10:30", "12:00", waitlistNow.Add(-time.Hour))

		err := f.svc.OnRelease(context.Background(), 1, waitlistDate, released, 60)

		require.NoError(t, err)
		assert.Equal(t, domain.WaitlistWaiting, f.repo.entries[outside.ID].Status)
		assert.Equal(t, domain.WaitlistOffered, f.repo.entries[inside.ID].Status)
	})

	t.Run("taken entry falls through to next", func(t *testing.T) {
		f := newWaitlistFixture()
		first := f.seedWaiting(7, "09:00", "13:00", waitlistNow.Add(-2*time.Hour))
		second := f.seedWaiting(8, "09:00", "13:00", waitlistNow.Add(-time.Hour))
		f.repo.offerConflicts[first.ID] = true

		err := f.svc.OnRelease(context.Background(), 1, waitlistDate, released, 60)

		require.NoError(t, err)
		assert.Equal(t, domain.WaitlistOffered, f.repo.entries[second.ID].Status)
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		f := newWaitlistFixture()

		err := f.svc.OnRelease(context.Background(), 1, waitlistDate, released, 60)

		require.NoError(t, err)
		assert.Empty(t, f.notifier.events)
	})
}

// seedOffered вставляет запись с оффером, истекающим в expiresAt
func (f *waitlistFixture) seedOffered(clientID int64, offerStart string, expiresAt time.Time) *domain.WaitlistEntry {
	entry := f.seedWaiting(clientID, "09:00", "13:00", waitlistNow.Add(-2*time.Hour))
	start := types.TimeString(offerStart)
	duration := 60
	offeredAt := expiresAt.Add(-15 * time.Minute)
	stored := f.repo.entries[entry.ID]
	stored.Status = domain.WaitlistOffered
	stored.OfferStart = &start
	stored.OfferDuration = &duration
	stored.OfferedAt = &offeredAt
	stored.OfferExpiresAt = &expiresAt
	return stored
}

// TestExpireOffers тестирует сборку просроченных офферов
func TestExpireOffers(t *testing.T) {
	t.Run("expires offer and re-offers to next in queue", func(t *testing.T) {
		f := newWaitlistFixture()
		stale := f.seedOffered(7, "10:00", waitlistNow.Add(-time.Minute))
		next := f.seedWaiting(8, "09:00", "12:00", waitlistNow.Add(-time.Hour))

		count, err := f.svc.ExpireOffers(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, domain.WaitlistExpired, f.repo.entries[stale.ID].Status)
		assert.True(t, f.audits.has(domain.AuditWaitlistExpired))

		// Невостребованный интервал 10:00-11:00 ушел следующему в очереди
		promoted := f.repo.entries[next.ID]
		assert.Equal(t, domain.WaitlistOffered, promoted.Status)
		require.NotNil(t, promoted.OfferStart)
		assert.Equal(t, types.TimeString("10:00"), *promoted.OfferStart)

		assert.Len(t, f.notifier.byType(notify.EventOfferExpired), 1)
		assert.Len(t, f.notifier.byType(notify.EventWaitlistOffer), 1)
	})

	t.Run("active offers are untouched", func(t *testing.T) {
		f := newWaitlistFixture()
		active := f.seedOffered(7, "10:00", waitlistNow.Add(10*time.Minute))

		count, err := f.svc.ExpireOffers(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Equal(t, domain.WaitlistOffered, f.repo.entries[active.ID].Status)
		assert.Empty(t, f.notifier.events)
	})

	t.Run("concurrently confirmed offer is skipped", func(t *testing.T) {
		f := newWaitlistFixture()
		f.seedOffered(7, "10:00", waitlistNow.Add(-time.Minute))
		f.repo.expireConflict = true

		count, err := f.svc.ExpireOffers(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Empty(t, f.notifier.events)
	})
}
