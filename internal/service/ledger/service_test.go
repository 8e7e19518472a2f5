package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	configRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/config"
	holdRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/hold"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notify"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/payments"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	ledgerNow  = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ledgerDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
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

type fakeBookingRepo struct {
	bookings  map[int64]*domain.Booking
	nextID    int64
	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[int64]*domain.Booking), nextID: 1}
}

func (r *fakeBookingRepo) add(b *domain.Booking) *domain.Booking {
	b.ID = r.nextID
	r.nextID++
	r.bookings[b.ID] = b
	return b
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	copied := *booking
	return r.add(&copied), nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range r.bookings {
		if b.ProviderID != filter.ProviderID {
			continue
		}
		if filter.StartDate != nil && b.BookingDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && b.BookingDate.After(*filter.EndDate) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (r *fakeBookingRepo) Cancel(ctx context.Context, id int64, cancelledBy domain.CancelledBy, reason string, feePercent float64) error {
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = domain.StatusCancelled
	b.CancelledBy = &cancelledBy
	b.CancellationFee = &feePercent
	return nil
}

func (r *fakeBookingRepo) MarkNoShow(ctx context.Context, id int64, at time.Time) error {
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = domain.StatusNoShow
	return nil
}

type fakeHoldRepo struct {
	holds  map[int64]*domain.SlotHold
	nextID int64
}

func newFakeHoldRepo() *fakeHoldRepo {
	return &fakeHoldRepo{holds: make(map[int64]*domain.SlotHold), nextID: 1}
}

func (r *fakeHoldRepo) add(h *domain.SlotHold) *domain.SlotHold {
	h.ID = r.nextID
	r.nextID++
	r.holds[h.ID] = h
	return h
}

func (r *fakeHoldRepo) Create(ctx context.Context, h *domain.SlotHold) (*domain.SlotHold, error) {
	copied := *h
	return r.add(&copied), nil
}

func (r *fakeHoldRepo) GetByID(ctx context.Context, id int64) (*domain.SlotHold, error) {
	h, ok := r.holds[id]
	if !ok {
		return nil, holdRepo.ErrHoldNotFound
	}
	copied := *h
	return &copied, nil
}

func (r *fakeHoldRepo) GetActiveByProviderDate(ctx context.Context, providerID int64, date time.Time, now time.Time) ([]*domain.SlotHold, error) {
	var out []*domain.SlotHold
	for id := int64(1); id < r.nextID; id++ {
		h, ok := r.holds[id]
		if !ok || h.ProviderID != providerID || !h.BookingDate.Equal(date) || h.IsExpired(now) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *fakeHoldRepo) GetByPackageKey(ctx context.Context, packageKey string) ([]*domain.SlotHold, error) {
	var out []*domain.SlotHold
	for id := int64(1); id < r.nextID; id++ {
		h, ok := r.holds[id]
		if !ok || h.PackageKey == nil || *h.PackageKey != packageKey {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *fakeHoldRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.holds[id]; !ok {
		return holdRepo.ErrHoldNotFound
	}
	delete(r.holds, id)
	return nil
}

func (r *fakeHoldRepo) DeleteByPackageKey(ctx context.Context, packageKey string) error {
	for id, h := range r.holds {
		if h.PackageKey != nil && *h.PackageKey == packageKey {
			delete(r.holds, id)
		}
	}
	return nil
}

func (r *fakeHoldRepo) DeleteExpired(ctx context.Context, now time.Time) ([]*domain.SlotHold, error) {
	var out []*domain.SlotHold
	for id := int64(1); id < r.nextID; id++ {
		h, ok := r.holds[id]
		if !ok || !h.IsExpired(now) {
			continue
		}
		out = append(out, h)
		delete(r.holds, id)
	}
	return out, nil
}

type fakeConfigRepo struct {
	cfg *domain.SchedulingConfig
}

func (r *fakeConfigRepo) GetConfigWithHierarchy(ctx context.Context, providerID int64, locationID, serviceID *int64) (*domain.SchedulingConfig, error) {
	if r.cfg == nil {
		return nil, configRepo.ErrConfigNotFound
	}
	return r.cfg, nil
}

type fakeWaitlistStore struct {
	entries        map[int64]*domain.WaitlistEntry
	markConfirmErr error
}

func newFakeWaitlistStore() *fakeWaitlistStore {
	return &fakeWaitlistStore{entries: make(map[int64]*domain.WaitlistEntry)}
}

func (r *fakeWaitlistStore) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, waitlistRepo.ErrEntryNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeWaitlistStore) MarkConfirmed(ctx context.Context, id int64) error {
	if r.markConfirmErr != nil {
		return r.markConfirmErr
	}
	e, ok := r.entries[id]
	if !ok {
		return waitlistRepo.ErrEntryNotFound
	}
	if e.Status != domain.WaitlistOffered {
		return waitlistRepo.ErrStatusConflict
	}
	e.Status = domain.WaitlistConfirmed
	return nil
}

func (r *fakeWaitlistStore) MarkExpired(ctx context.Context, id int64) error {
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

type fakeAvailability struct {
	windows []domain.TimeRange
}

func (a *fakeAvailability) ResolveWindows(ctx context.Context, providerID int64, date time.Time) ([]domain.TimeRange, error) {
	return a.windows, nil
}

type fakePolicy struct {
	block   domain.BlockStatus
	fee     float64
	feeErr  error
	noShows []int64
}

func (p *fakePolicy) ComputeFee(booking *domain.Booking) (float64, error) {
	return p.fee, p.feeErr
}

func (p *fakePolicy) RecordNoShow(ctx context.Context, clientID, bookingID int64, at time.Time) error {
	p.noShows = append(p.noShows, bookingID)
	return nil
}

func (p *fakePolicy) BlockStatus(ctx context.Context, clientID int64) (*domain.BlockStatus, error) {
	status := p.block
	return &status, nil
}

type promoteCall struct {
	providerID int64
	date       time.Time
	released   domain.TimeRange
	duration   int
}

type fakePromoter struct {
	calls []promoteCall
}

func (p *fakePromoter) OnRelease(ctx context.Context, providerID int64, date time.Time, released domain.TimeRange, durationMinutes int) error {
	p.calls = append(p.calls, promoteCall{providerID: providerID, date: date, released: released, duration: durationMinutes})
	return nil
}

type fakeCatalog struct {
	providers map[int64]*catalogservice.Provider
	services  map[int64]*catalogservice.Service
}

func (c *fakeCatalog) GetProvider(ctx context.Context, providerID int64) (*catalogservice.Provider, error) {
	p, ok := c.providers[providerID]
	if !ok {
		return nil, catalogservice.ErrProviderNotFound
	}
	return p, nil
}

func (c *fakeCatalog) GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error) {
	s, ok := c.services[serviceID]
	if !ok {
		return nil, catalogservice.ErrServiceNotFound
	}
	return s, nil
}

type refundCall struct {
	authID string
	amount float64
}

type fakePayments struct {
	declined   bool
	authorizes []payments.AuthorizeRequest
	captures   []refundCall
	refunds    []refundCall
}

func (p *fakePayments) Authorize(ctx context.Context, request payments.AuthorizeRequest) (*payments.AuthorizeResponse, error) {
	if p.declined {
		return nil, payments.ErrPaymentDeclined
	}
	p.authorizes = append(p.authorizes, request)
	return &payments.AuthorizeResponse{
		AuthID:   fmt.Sprintf("auth-%d", len(p.authorizes)),
		Captured: request.InstantCapture,
	}, nil
}

func (p *fakePayments) Capture(ctx context.Context, authID string, amount float64) error {
	p.captures = append(p.captures, refundCall{authID: authID, amount: amount})
	return nil
}

func (p *fakePayments) Refund(ctx context.Context, authID string, amount float64) error {
	p.refunds = append(p.refunds, refundCall{authID: authID, amount: amount})
	return nil
}

type fakeNotifier struct {
	events []notify.Event
}

func (n *fakeNotifier) Dispatch(event notify.Event) {
	n.events = append(n.events, event)
}

// ledgerFixture собирает сервис реестра на in-memory фейках.
// Провайдер 1 с локацией 10, услуга 100 (60 минут, 100.0), окно 09:00-18:00,
// емкость 1 без овербукинга, TTL холда 2 минуты.
type ledgerFixture struct {
	svc      *Service
	bookings *fakeBookingRepo
	holds    *fakeHoldRepo
	config   *fakeConfigRepo
	waitlist *fakeWaitlistStore
	audits   *fakeAuditRepo
	windows  *fakeAvailability
	policy   *fakePolicy
	promoter *fakePromoter
	catalog  *fakeCatalog
	payments *fakePayments
	notifier *fakeNotifier
	clock    *fakeClock
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		bookings: newFakeBookingRepo(),
		holds:    newFakeHoldRepo(),
		waitlist: newFakeWaitlistStore(),
		audits:   &fakeAuditRepo{},
		promoter: &fakePromoter{},
		payments: &fakePayments{},
		notifier: &fakeNotifier{},
		clock:    &fakeClock{now: ledgerNow},
	}
	f.config = &fakeConfigRepo{cfg: &domain.SchedulingConfig{
		ProviderID:              1,
		SlotGranularityMinutes:  60,
		BaseCapacity:            1,
		OverbookingPercent:      0,
		AdvanceBookingDays:      30,
		MinBookingNoticeMinutes: 60,
	}}
	f.windows = &fakeAvailability{windows: []domain.TimeRange{
		{Start: types.TimeString("09:00"), End: types.TimeString("18:00")},
	}}
	f.policy = &fakePolicy{}
	f.catalog = &fakeCatalog{
		providers: map[int64]*catalogservice.Provider{
			1: {
				ID:           1,
				Name:         "Wellness Studio",
				Locations:    []catalogservice.Location{{ID: 10, Name: "Center"}},
				Capabilities: []string{"massage", "cosmetology"},
				IsActive:     true,
			},
		},
		services: map[int64]*catalogservice.Service{
			100: {
				ID:              100,
				ProviderID:      1,
				Name:            "Massage",
				DurationMinutes: 60,
				Capability:      "massage",
				Price:           100,
				IsActive:        true,
			},
			101: {
				ID:                 101,
				ProviderID:         1,
				Name:               "Facial",
				DurationMinutes:    30,
				BufferAfterMinutes: 10,
				Capability:         "cosmetology",
				Price:              50,
				IsActive:           true,
			},
		},
	}
	f.svc = NewService(
		f.bookings, f.holds, f.config, f.waitlist, f.audits,
		f.windows, f.policy, f.promoter, f.catalog, f.payments,
		f.notifier, &fakeTxManager{}, f.clock,
		2*time.Minute, "RUB", nopLogger{},
	)
	return f
}

func (f *ledgerFixture) holdRequest() HoldRequest {
	return HoldRequest{
		ClientID:   7,
		ProviderID: 1,
		LocationID: 10,
		ServiceID:  100,
		Date:       ledgerDate,
		StartTime:  types.TimeString("10:00"),
	}
}

// seedHold вставляет активный холд напрямую, минуя протокол
func (f *ledgerFixture) seedHold(clientID int64, start types.TimeString, price float64) *domain.SlotHold {
	return f.holds.add(&domain.SlotHold{
		ProviderID:      1,
		ClientID:        clientID,
		LocationID:      10,
		ServiceIDs:      []int64{100},
		BookingDate:     ledgerDate,
		StartTime:       start,
		DurationMinutes: 60,
		ServiceName:     "Massage",
		ServicePrice:    price,
		ExpiresAt:       ledgerNow.Add(2 * time.Minute),
	})
}

// seedBooking вставляет бронирование напрямую
func (f *ledgerFixture) seedBooking(status domain.BookingStatus, start types.TimeString) *domain.Booking {
	return f.bookings.add(&domain.Booking{
		ClientID:        7,
		ProviderID:      1,
		LocationID:      10,
		ServiceIDs:      []int64{100},
		BookingDate:     ledgerDate,
		StartTime:       start,
		DurationMinutes: 60,
		Status:          status,
		ServiceName:     "Massage",
		ServicePrice:    100,
	})
}

// TestHold тестирует успешный холд слота
func TestHold(t *testing.T) {
	t.Run("creates hold with ttl", func(t *testing.T) {
		f := newLedgerFixture()

		hold, err := f.svc.Hold(context.Background(), f.holdRequest())

		require.NoError(t, err)
		assert.Equal(t, int64(1), hold.ID)
		assert.Equal(t, []int64{100}, hold.ServiceIDs)
		assert.Equal(t, 60, hold.DurationMinutes)
		assert.Equal(t, "Massage", hold.ServiceName)
		assert.Equal(t, ledgerNow.Add(2*time.Minute), hold.ExpiresAt)
		assert.False(t, hold.Overbooked)
		assert.True(t, f.audits.has(domain.AuditHoldCreated))
	})

	t.Run("falls back to default config", func(t *testing.T) {
		f := newLedgerFixture()
		f.config.cfg = nil

		hold, err := f.svc.Hold(context.Background(), f.holdRequest())

		require.NoError(t, err)
		assert.NotNil(t, hold)
	})

	t.Run("second hold on full slot is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		f.seedHold(8, types.TimeString("10:00"), 100)

		_, err := f.svc.Hold(context.Background(), f.holdRequest())

		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("committed booking consumes capacity", func(t *testing.T) {
		f := newLedgerFixture()
		f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))

		_, err := f.svc.Hold(context.Background(), f.holdRequest())

		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("cancelled booking frees capacity", func(t *testing.T) {
		f := newLedgerFixture()
		f.seedBooking(domain.StatusCancelled, types.TimeString("10:00"))

		_, err := f.svc.Hold(context.Background(), f.holdRequest())

		assert.NoError(t, err)
	})

	t.Run("adjacent booking does not consume capacity", func(t *testing.T) {
		f := newLedgerFixture()
		f.seedBooking(domain.StatusConfirmed, types.TimeString("11:00"))

		_, err := f.svc.Hold(context.Background(), f.holdRequest())

		assert.NoError(t, err)
	})
}

// TestHoldOverbooking тестирует выдачу холдов сверх базовой емкости
func TestHoldOverbooking(t *testing.T) {
	t.Run("hold above base capacity is flagged", func(t *testing.T) {
		f := newLedgerFixture()
		f.config.cfg.OverbookingPercent = 100
		f.seedHold(8, types.TimeString("10:00"), 100)

		hold, err := f.svc.Hold(context.Background(), f.holdRequest())

		require.NoError(t, err)
		assert.True(t, hold.Overbooked)
	})

	t.Run("exhausted allowance is a hard ceiling", func(t *testing.T) {
		f := newLedgerFixture()
		f.config.cfg.OverbookingPercent = 100
		f.seedHold(8, types.TimeString("10:00"), 100)
		f.seedHold(9, types.TimeString("10:00"), 100)

		_, err := f.svc.Hold(context.Background(), f.holdRequest())

		assert.ErrorIs(t, err, ErrOverbookingLimitExceeded)
		assert.NotErrorIs(t, err, ErrSlotUnavailable)
	})
}

// TestHoldRejections тестирует отказы на этапах валидации холда
func TestHoldRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *ledgerFixture, req *HoldRequest)
		wantErr error
	}{
		{
			name: "blocked client",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				f.policy.block = domain.BlockStatus{
					Blocked:     true,
					ActiveUntil: ledgerNow.Add(72 * time.Hour),
					NoShowCount: 3,
				}
			},
			wantErr: ErrClientBlocked,
		},
		{
			name: "unknown provider",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.ProviderID = 99
			},
			wantErr: ErrProviderNotFound,
		},
		{
			name: "unknown service",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.ServiceID = 999
			},
			wantErr: ErrServiceNotFound,
		},
		{
			name: "foreign location",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.LocationID = 55
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "missing capability",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				f.catalog.providers[1].Capabilities = []string{"cosmetology"}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "slot before window start",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.StartTime = types.TimeString("08:00")
			},
			wantErr: ErrSlotUnavailable,
		},
		{
			name: "slot end spills past window",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.StartTime = types.TimeString("17:30")
			},
			wantErr: ErrSlotUnavailable,
		},
		{
			name: "start inside notice period",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.Date = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
				req.StartTime = types.TimeString("10:30")
			},
			wantErr: ErrTooLateToBook,
		},
		{
			name: "date beyond booking horizon",
			mutate: func(f *ledgerFixture, req *HoldRequest) {
				req.Date = time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
			},
			wantErr: ErrDateTooFar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			req := f.holdRequest()
			tt.mutate(f, &req)

			_, err := f.svc.Hold(context.Background(), req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.holds.holds)
		})
	}
}

// TestHoldBlockedError тестирует детали ошибки блокировки клиента
func TestHoldBlockedError(t *testing.T) {
	f := newLedgerFixture()
	until := ledgerNow.Add(72 * time.Hour)
	f.policy.block = domain.BlockStatus{Blocked: true, ActiveUntil: until, NoShowCount: 4}

	_, err := f.svc.Hold(context.Background(), f.holdRequest())

	require.ErrorIs(t, err, ErrClientBlocked)
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, until, blocked.ActiveUntil)
	assert.Equal(t, 4, blocked.NoShowCount)
}

// TestCommit тестирует конвертацию холда в бронирование
func TestCommit(t *testing.T) {
	t.Run("instant capture confirms immediately", func(t *testing.T) {
		f := newLedgerFixture()
		hold, err := f.svc.Hold(context.Background(), f.holdRequest())
		require.NoError(t, err)

		booking, err := f.svc.Commit(context.Background(), hold.ID, CommitRequest{
			ClientID:       7,
			InstantCapture: true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, booking.Status)
		assert.Equal(t, hold.StartTime, booking.StartTime)
		assert.Equal(t, hold.ServicePrice, booking.ServicePrice)
		assert.Empty(t, f.holds.holds)

		require.Len(t, f.payments.authorizes, 1)
		auth := f.payments.authorizes[0]
		assert.Equal(t, fmt.Sprintf("hold-%d", hold.ID), auth.IdempotencyKey)
		assert.Equal(t, 100.0, auth.Amount)
		assert.Equal(t, "RUB", auth.Currency)

		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, notify.EventBookingConfirmed, f.notifier.events[0].Type)
		assert.True(t, f.audits.has(domain.AuditBookingCommitted))
	})

	t.Run("preauthorization leaves booking pending", func(t *testing.T) {
		f := newLedgerFixture()
		hold, err := f.svc.Hold(context.Background(), f.holdRequest())
		require.NoError(t, err)

		booking, err := f.svc.Commit(context.Background(), hold.ID, CommitRequest{ClientID: 7})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPendingPayment, booking.Status)
		require.NotNil(t, booking.PaymentAuthID)
	})

	t.Run("free service skips payment", func(t *testing.T) {
		f := newLedgerFixture()
		f.catalog.services[100].Price = 0
		hold, err := f.svc.Hold(context.Background(), f.holdRequest())
		require.NoError(t, err)

		booking, err := f.svc.Commit(context.Background(), hold.ID, CommitRequest{ClientID: 7})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, booking.Status)
		assert.Nil(t, booking.PaymentAuthID)
		assert.Empty(t, f.payments.authorizes)
	})

	t.Run("unknown hold", func(t *testing.T) {
		f := newLedgerFixture()

		_, err := f.svc.Commit(context.Background(), 42, CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrHoldNotFound)
	})

	t.Run("foreign hold", func(t *testing.T) {
		f := newLedgerFixture()
		hold := f.seedHold(8, types.TimeString("10:00"), 100)

		_, err := f.svc.Commit(context.Background(), hold.ID, CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("expired hold", func(t *testing.T) {
		f := newLedgerFixture()
		hold := f.seedHold(7, types.TimeString("10:00"), 100)
		f.clock.now = ledgerNow.Add(3 * time.Minute)

		_, err := f.svc.Commit(context.Background(), hold.ID, CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrHoldExpired)
		assert.Empty(t, f.payments.authorizes)
	})

	t.Run("payment declined keeps hold", func(t *testing.T) {
		f := newLedgerFixture()
		f.payments.declined = true
		hold, err := f.svc.Hold(context.Background(), f.holdRequest())
		require.NoError(t, err)

		_, err = f.svc.Commit(context.Background(), hold.ID, CommitRequest{ClientID: 7, InstantCapture: true})

		assert.ErrorIs(t, err, ErrPaymentDeclined)
		assert.Contains(t, f.holds.holds, hold.ID)
		assert.Empty(t, f.bookings.bookings)
	})

	t.Run("failed conversion refunds authorization", func(t *testing.T) {
		f := newLedgerFixture()
		f.bookings.createErr = errors.New("constraint violation")
		hold, err := f.svc.Hold(context.Background(), f.holdRequest())
		require.NoError(t, err)

		_, err = f.svc.Commit(context.Background(), hold.ID, CommitRequest{ClientID: 7, InstantCapture: true})

		require.Error(t, err)
		require.Len(t, f.payments.refunds, 1)
		assert.Equal(t, 100.0, f.payments.refunds[0].amount)
	})
}

// TestRelease тестирует досрочное снятие холда
func TestRelease(t *testing.T) {
	t.Run("releases and promotes waitlist", func(t *testing.T) {
		f := newLedgerFixture()
		hold, err := f.svc.Hold(context.Background(), f.holdRequest())
		require.NoError(t, err)

		err = f.svc.Release(context.Background(), hold.ID, 7)

		require.NoError(t, err)
		assert.Empty(t, f.holds.holds)
		assert.True(t, f.audits.has(domain.AuditHoldReleased))

		require.Len(t, f.promoter.calls, 1)
		call := f.promoter.calls[0]
		assert.Equal(t, int64(1), call.providerID)
		assert.Equal(t, ledgerDate, call.date)
		assert.Equal(t, types.TimeString("10:00"), call.released.Start)
		assert.Equal(t, types.TimeString("11:00"), call.released.End)
		assert.Equal(t, 60, call.duration)
	})

	t.Run("foreign hold", func(t *testing.T) {
		f := newLedgerFixture()
		hold := f.seedHold(8, types.TimeString("10:00"), 100)

		err := f.svc.Release(context.Background(), hold.ID, 7)

		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Empty(t, f.promoter.calls)
	})

	t.Run("unknown hold", func(t *testing.T) {
		f := newLedgerFixture()

		err := f.svc.Release(context.Background(), 42, 7)

		assert.ErrorIs(t, err, ErrHoldNotFound)
	})
}

// commitBooking проводит полный hold/commit цикл и возвращает бронирование
func commitBooking(t *testing.T, f *ledgerFixture, instantCapture bool) *domain.Booking {
	t.Helper()
	hold, err := f.svc.Hold(context.Background(), f.holdRequest())
	require.NoError(t, err)
	booking, err := f.svc.Commit(context.Background(), hold.ID, CommitRequest{
		ClientID:       7,
		InstantCapture: instantCapture,
	})
	require.NoError(t, err)
	return booking
}

// TestCancel тестирует отмену с расчетом комиссии и возвратом
func TestCancel(t *testing.T) {
	t.Run("refunds price minus fee", func(t *testing.T) {
		f := newLedgerFixture()
		booking := commitBooking(t, f, true)
		f.policy.fee = 50

		cancelled, err := f.svc.Cancel(context.Background(), booking.ID, CancelRequest{
			ActorID:     7,
			CancelledBy: domain.CancelledByClient,
			Reason:      "plans changed",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancellationFee)
		assert.Equal(t, 50.0, *cancelled.CancellationFee)

		require.Len(t, f.payments.refunds, 1)
		assert.Equal(t, 50.0, f.payments.refunds[0].amount)

		assert.True(t, f.audits.has(domain.AuditBookingCancelled))
		assert.True(t, f.audits.has(domain.AuditFeeApplied))
		assert.Len(t, f.promoter.calls, 1)

		require.NotEmpty(t, f.notifier.events)
		assert.Equal(t, notify.EventBookingCancelled, f.notifier.events[len(f.notifier.events)-1].Type)
	})

	t.Run("full fee skips refund", func(t *testing.T) {
		f := newLedgerFixture()
		booking := commitBooking(t, f, true)
		f.policy.fee = 100

		_, err := f.svc.Cancel(context.Background(), booking.ID, CancelRequest{
			ActorID:     7,
			CancelledBy: domain.CancelledByClient,
		})

		require.NoError(t, err)
		assert.Empty(t, f.payments.refunds)
	})

	t.Run("zero fee skips fee audit", func(t *testing.T) {
		f := newLedgerFixture()
		booking := commitBooking(t, f, true)

		_, err := f.svc.Cancel(context.Background(), booking.ID, CancelRequest{
			ActorID:     7,
			CancelledBy: domain.CancelledByClient,
		})

		require.NoError(t, err)
		assert.False(t, f.audits.has(domain.AuditFeeApplied))
		require.Len(t, f.payments.refunds, 1)
		assert.Equal(t, 100.0, f.payments.refunds[0].amount)
	})

	t.Run("terminal booking", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusCompleted, types.TimeString("10:00"))

		_, err := f.svc.Cancel(context.Background(), booking.ID, CancelRequest{
			ActorID:     7,
			CancelledBy: domain.CancelledByClient,
		})

		assert.ErrorIs(t, err, ErrPolicyViolation)
	})

	t.Run("foreign booking cancelled by client", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))

		_, err := f.svc.Cancel(context.Background(), booking.ID, CancelRequest{
			ActorID:     99,
			CancelledBy: domain.CancelledByClient,
		})

		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("provider cancels foreign booking", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))

		cancelled, err := f.svc.Cancel(context.Background(), booking.ID, CancelRequest{
			ActorID:     1,
			CancelledBy: domain.CancelledByProvider,
			Reason:      "specialist unavailable",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newLedgerFixture()

		_, err := f.svc.Cancel(context.Background(), 42, CancelRequest{
			ActorID:     7,
			CancelledBy: domain.CancelledByClient,
		})

		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

// TestMarkNoShow тестирует фиксацию неявки
func TestMarkNoShow(t *testing.T) {
	t.Run("marks and records policy event", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))

		marked, err := f.svc.MarkNoShow(context.Background(), booking.ID, "provider:1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusNoShow, marked.Status)
		assert.Equal(t, []int64{booking.ID}, f.policy.noShows)
		assert.True(t, f.audits.has(domain.AuditNoShowMarked))
		assert.False(t, f.audits.has(domain.AuditClientBlocked))
		assert.Len(t, f.promoter.calls, 1)

		require.NotEmpty(t, f.notifier.events)
		assert.Equal(t, notify.EventBookingNoShow, f.notifier.events[0].Type)
	})

	t.Run("threshold crossing records block", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))
		f.policy.block = domain.BlockStatus{
			Blocked:     true,
			ActiveUntil: ledgerNow.Add(72 * time.Hour),
			NoShowCount: 3,
		}

		_, err := f.svc.MarkNoShow(context.Background(), booking.ID, "provider:1")

		require.NoError(t, err)
		assert.True(t, f.audits.has(domain.AuditClientBlocked))
	})

	t.Run("pending payment cannot be no-show", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusPendingPayment, types.TimeString("10:00"))

		_, err := f.svc.MarkNoShow(context.Background(), booking.ID, "provider:1")

		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Empty(t, f.policy.noShows)
	})
}

// TestAdvanceStatus тестирует переходы по таблице статусов
func TestAdvanceStatus(t *testing.T) {
	t.Run("payment confirmation captures funds", func(t *testing.T) {
		f := newLedgerFixture()
		booking := commitBooking(t, f, false)
		require.Equal(t, domain.StatusPendingPayment, booking.Status)

		advanced, err := f.svc.AdvanceStatus(context.Background(), booking.ID, domain.StatusConfirmed, "system")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, advanced.Status)
		require.Len(t, f.payments.captures, 1)
		assert.Equal(t, 100.0, f.payments.captures[0].amount)
		assert.True(t, f.audits.has(domain.AuditStatusChanged))
	})

	t.Run("service start does not touch payment", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))

		advanced, err := f.svc.AdvanceStatus(context.Background(), booking.ID, domain.StatusInProgress, "provider:1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, advanced.Status)
		assert.Empty(t, f.payments.captures)
	})

	t.Run("confirmed cannot complete directly", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusConfirmed, types.TimeString("10:00"))

		_, err := f.svc.AdvanceStatus(context.Background(), booking.ID, domain.StatusCompleted, "provider:1")

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("terminal status is frozen", func(t *testing.T) {
		f := newLedgerFixture()
		booking := f.seedBooking(domain.StatusCompleted, types.TimeString("10:00"))

		_, err := f.svc.AdvanceStatus(context.Background(), booking.ID, domain.StatusCancelled, "system")

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

// packageHolds создает пакет из двух последовательных холдов
func packageHolds(t *testing.T, f *ledgerFixture, key string) []*domain.SlotHold {
	t.Helper()
	first, err := f.svc.Hold(context.Background(), HoldRequest{
		ClientID:   7,
		ProviderID: 1,
		LocationID: 10,
		ServiceID:  100,
		Date:       ledgerDate,
		StartTime:  types.TimeString("10:00"),
		PackageKey: &key,
	})
	require.NoError(t, err)
	second, err := f.svc.Hold(context.Background(), HoldRequest{
		ClientID:   7,
		ProviderID: 1,
		LocationID: 10,
		ServiceID:  101,
		Date:       ledgerDate,
		StartTime:  types.TimeString("11:00"),
		PackageKey: &key,
	})
	require.NoError(t, err)
	return []*domain.SlotHold{first, second}
}

// TestCommitPackage тестирует атомарную конвертацию пакета холдов
func TestCommitPackage(t *testing.T) {
	t.Run("consolidates holds into one booking", func(t *testing.T) {
		f := newLedgerFixture()
		packageHolds(t, f, "pkg-1")

		booking, err := f.svc.CommitPackage(context.Background(), "pkg-1", CommitRequest{
			ClientID:       7,
			InstantCapture: true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, booking.Status)
		assert.Equal(t, []int64{100, 101}, booking.ServiceIDs)
		assert.Equal(t, "Massage + Facial", booking.ServiceName)
		assert.Equal(t, types.TimeString("10:00"), booking.StartTime)
		// Услуги занимают 10:00-11:30, хвостовой буфер второй услуги отдельно
		assert.Equal(t, 90, booking.DurationMinutes)
		assert.Equal(t, 150.0, booking.ServicePrice)
		assert.Equal(t, 10, booking.BufferAfterMinutes)
		assert.Empty(t, f.holds.holds)

		require.Len(t, f.payments.authorizes, 1)
		assert.Equal(t, "package-pkg-1", f.payments.authorizes[0].IdempotencyKey)
		assert.Equal(t, 150.0, f.payments.authorizes[0].Amount)
	})

	t.Run("unknown package key", func(t *testing.T) {
		f := newLedgerFixture()

		_, err := f.svc.CommitPackage(context.Background(), "missing", CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrHoldNotFound)
	})

	t.Run("foreign package", func(t *testing.T) {
		f := newLedgerFixture()
		packageHolds(t, f, "pkg-1")

		_, err := f.svc.CommitPackage(context.Background(), "pkg-1", CommitRequest{ClientID: 99})

		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("single expired hold fails whole package", func(t *testing.T) {
		f := newLedgerFixture()
		holds := packageHolds(t, f, "pkg-1")
		f.holds.holds[holds[1].ID].ExpiresAt = ledgerNow.Add(-time.Second)

		_, err := f.svc.CommitPackage(context.Background(), "pkg-1", CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrHoldExpired)
		assert.Empty(t, f.payments.authorizes)
		assert.Empty(t, f.bookings.bookings)
	})

	t.Run("failed conversion refunds total", func(t *testing.T) {
		f := newLedgerFixture()
		packageHolds(t, f, "pkg-1")
		f.bookings.createErr = errors.New("constraint violation")

		_, err := f.svc.CommitPackage(context.Background(), "pkg-1", CommitRequest{
			ClientID:       7,
			InstantCapture: true,
		})

		require.Error(t, err)
		require.Len(t, f.payments.refunds, 1)
		assert.Equal(t, 150.0, f.payments.refunds[0].amount)
	})
}

// TestReleasePackage тестирует снятие всех холдов пакета
func TestReleasePackage(t *testing.T) {
	t.Run("releases all holds", func(t *testing.T) {
		f := newLedgerFixture()
		packageHolds(t, f, "pkg-1")

		err := f.svc.ReleasePackage(context.Background(), "pkg-1")

		require.NoError(t, err)
		assert.Empty(t, f.holds.holds)
		assert.True(t, f.audits.has(domain.AuditHoldReleased))
	})

	t.Run("empty package is not an error", func(t *testing.T) {
		f := newLedgerFixture()

		err := f.svc.ReleasePackage(context.Background(), "missing")

		assert.NoError(t, err)
	})

	t.Run("foreign holds survive", func(t *testing.T) {
		f := newLedgerFixture()
		packageHolds(t, f, "pkg-1")
		other := f.seedHold(8, types.TimeString("14:00"), 100)

		err := f.svc.ReleasePackage(context.Background(), "pkg-1")

		require.NoError(t, err)
		assert.Contains(t, f.holds.holds, other.ID)
		assert.Len(t, f.holds.holds, 1)
	})
}

// seedOffer вставляет запись листа ожидания с действующим оффером
func (f *ledgerFixture) seedOffer(status domain.WaitlistStatus, expiresAt time.Time) *domain.WaitlistEntry {
	start := types.TimeString("10:00")
	duration := 60
	offeredAt := ledgerNow.Add(-time.Minute)
	entry := &domain.WaitlistEntry{
		ID:             1,
		ClientID:       7,
		ProviderID:     1,
		LocationID:     10,
		ServiceID:      100,
		DesiredDate:    ledgerDate,
		WindowStart:    types.TimeString("09:00"),
		WindowEnd:      types.TimeString("13:00"),
		Status:         status,
		OfferedAt:      &offeredAt,
		OfferExpiresAt: &expiresAt,
		OfferStart:     &start,
		OfferDuration:  &duration,
		RequestedAt:    ledgerNow.Add(-time.Hour),
		Seq:            1,
	}
	f.waitlist.entries[entry.ID] = entry
	return entry
}

// TestConfirmOffer тестирует подтверждение оффера через hold/commit протокол
func TestConfirmOffer(t *testing.T) {
	t.Run("converts offer into booking", func(t *testing.T) {
		f := newLedgerFixture()
		entry := f.seedOffer(domain.WaitlistOffered, ledgerNow.Add(15*time.Minute))

		booking, err := f.svc.ConfirmOffer(context.Background(), entry.ID, CommitRequest{
			ClientID:       7,
			InstantCapture: true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, booking.Status)
		assert.Equal(t, types.TimeString("10:00"), booking.StartTime)
		assert.Equal(t, domain.WaitlistConfirmed, f.waitlist.entries[entry.ID].Status)
		assert.Empty(t, f.holds.holds)
		assert.True(t, f.audits.has(domain.AuditWaitlistConfirm))
	})

	t.Run("unknown entry", func(t *testing.T) {
		f := newLedgerFixture()

		_, err := f.svc.ConfirmOffer(context.Background(), 42, CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrWaitlistEntryNotFound)
	})

	t.Run("foreign entry", func(t *testing.T) {
		f := newLedgerFixture()
		entry := f.seedOffer(domain.WaitlistOffered, ledgerNow.Add(15*time.Minute))

		_, err := f.svc.ConfirmOffer(context.Background(), entry.ID, CommitRequest{ClientID: 99})

		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("entry without active offer", func(t *testing.T) {
		f := newLedgerFixture()
		entry := f.seedOffer(domain.WaitlistWaiting, ledgerNow.Add(15*time.Minute))

		_, err := f.svc.ConfirmOffer(context.Background(), entry.ID, CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrOfferConflict)
	})

	t.Run("stale offer expires in place", func(t *testing.T) {
		f := newLedgerFixture()
		entry := f.seedOffer(domain.WaitlistOffered, ledgerNow.Add(-time.Second))

		_, err := f.svc.ConfirmOffer(context.Background(), entry.ID, CommitRequest{ClientID: 7})

		assert.ErrorIs(t, err, ErrOfferExpired)
		assert.Equal(t, domain.WaitlistExpired, f.waitlist.entries[entry.ID].Status)
	})

	t.Run("lost confirmation race releases hold", func(t *testing.T) {
		f := newLedgerFixture()
		entry := f.seedOffer(domain.WaitlistOffered, ledgerNow.Add(15*time.Minute))
		f.waitlist.markConfirmErr = waitlistRepo.ErrStatusConflict

		_, err := f.svc.ConfirmOffer(context.Background(), entry.ID, CommitRequest{
			ClientID:       7,
			InstantCapture: true,
		})

		assert.ErrorIs(t, err, ErrOfferConflict)
		assert.Empty(t, f.holds.holds)
		// Авторизация была до конвертации, деньги возвращены
		require.Len(t, f.payments.refunds, 1)
		assert.Equal(t, 100.0, f.payments.refunds[0].amount)
	})
}

// TestExpireHolds тестирует сборку просроченных холдов
func TestExpireHolds(t *testing.T) {
	t.Run("removes only expired holds", func(t *testing.T) {
		f := newLedgerFixture()
		stale1 := f.seedHold(7, types.TimeString("10:00"), 100)
		stale2 := f.seedHold(8, types.TimeString("12:00"), 100)
		fresh := f.seedHold(9, types.TimeString("14:00"), 100)
		f.holds.holds[stale1.ID].ExpiresAt = ledgerNow.Add(-time.Minute)
		f.holds.holds[stale2.ID].ExpiresAt = ledgerNow.Add(-time.Second)

		count, err := f.svc.ExpireHolds(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Contains(t, f.holds.holds, fresh.ID)
		assert.Len(t, f.holds.holds, 1)
		assert.True(t, f.audits.has(domain.AuditHoldExpired))

		require.Len(t, f.promoter.calls, 2)
		assert.Equal(t, types.TimeString("10:00"), f.promoter.calls[0].released.Start)
		assert.Equal(t, types.TimeString("12:00"), f.promoter.calls[1].released.Start)
	})

	t.Run("nothing to expire", func(t *testing.T) {
		f := newLedgerFixture()
		f.seedHold(7, types.TimeString("10:00"), 100)

		count, err := f.svc.ExpireHolds(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Empty(t, f.promoter.calls)
	})
}
