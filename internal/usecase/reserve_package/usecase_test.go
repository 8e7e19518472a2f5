package reserve_package

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/ledger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var packageDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fakeLedger struct {
	holds      []ledger.HoldRequest
	failHoldAt int
	holdErr    error
	commitKeys []string
	commitErr  error
	booking    *domain.Booking
	released   []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		failHoldAt: -1,
		booking:    &domain.Booking{ID: 1, Status: domain.StatusConfirmed},
	}
}

func (l *fakeLedger) Hold(ctx context.Context, req ledger.HoldRequest) (*domain.SlotHold, error) {
	if l.failHoldAt == len(l.holds) {
		return nil, l.holdErr
	}
	l.holds = append(l.holds, req)
	return &domain.SlotHold{ID: int64(len(l.holds))}, nil
}

func (l *fakeLedger) CommitPackage(ctx context.Context, packageKey string, req ledger.CommitRequest) (*domain.Booking, error) {
	if l.commitErr != nil {
		return nil, l.commitErr
	}
	l.commitKeys = append(l.commitKeys, packageKey)
	return l.booking, nil
}

func (l *fakeLedger) ReleasePackage(ctx context.Context, packageKey string) error {
	l.released = append(l.released, packageKey)
	return nil
}

type fakeCatalog struct {
	services map[int64]*catalogservice.Service
}

func (c *fakeCatalog) GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error) {
	s, ok := c.services[serviceID]
	if !ok {
		return nil, catalogservice.ErrServiceNotFound
	}
	return s, nil
}

// newPackageFixture собирает use case с тремя услугами провайдера 1:
// 100 (60 минут), 101 (30 минут + 10 буфер), 102 (45 минут)
func newPackageFixture() (*UseCase, *fakeLedger) {
	bookingLedger := newFakeLedger()
	catalog := &fakeCatalog{services: map[int64]*catalogservice.Service{
		100: {ID: 100, ProviderID: 1, Name: "Massage", DurationMinutes: 60},
		101: {ID: 101, ProviderID: 1, Name: "Facial", DurationMinutes: 30, BufferAfterMinutes: 10},
		102: {ID: 102, ProviderID: 1, Name: "Manicure", DurationMinutes: 45},
		200: {ID: 200, ProviderID: 2, Name: "Foreign", DurationMinutes: 30},
	}}
	return NewUseCase(bookingLedger, catalog, nopLogger{}), bookingLedger
}

func packageRequest(serviceIDs ...int64) *Request {
	return &Request{
		ClientID:   7,
		ProviderID: 1,
		LocationID: 10,
		ServiceIDs: serviceIDs,
		Date:       packageDate,
		StartTime:  types.TimeString("10:00"),
	}
}

// TestExecute тестирует успешную пакетную резервацию
func TestExecute(t *testing.T) {
	t.Run("lays out consecutive holds and commits", func(t *testing.T) {
		uc, bookingLedger := newPackageFixture()

		resp, err := uc.Execute(context.Background(), packageRequest(100, 101, 102))

		require.NoError(t, err)
		assert.NotEmpty(t, resp.PackageKey)
		assert.Equal(t, int64(1), resp.Booking.ID)

		// 10:00 массаж (60), 11:00 чистка (30+10), 11:40 маникюр
		require.Len(t, bookingLedger.holds, 3)
		assert.Equal(t, types.TimeString("10:00"), bookingLedger.holds[0].StartTime)
		assert.Equal(t, types.TimeString("11:00"), bookingLedger.holds[1].StartTime)
		assert.Equal(t, types.TimeString("11:40"), bookingLedger.holds[2].StartTime)

		for i, serviceID := range []int64{100, 101, 102} {
			hold := bookingLedger.holds[i]
			assert.Equal(t, serviceID, hold.ServiceID)
			require.NotNil(t, hold.PackageKey)
			assert.Equal(t, resp.PackageKey, *hold.PackageKey)
		}

		assert.Equal(t, []string{resp.PackageKey}, bookingLedger.commitKeys)
		assert.Empty(t, bookingLedger.released)
	})

	t.Run("single service package", func(t *testing.T) {
		uc, bookingLedger := newPackageFixture()

		_, err := uc.Execute(context.Background(), packageRequest(100))

		require.NoError(t, err)
		require.Len(t, bookingLedger.holds, 1)
		assert.Equal(t, types.TimeString("10:00"), bookingLedger.holds[0].StartTime)
	})
}

// TestExecutePartialFailure тестирует откат пакета при отказе одного холда
func TestExecutePartialFailure(t *testing.T) {
	t.Run("mid-sequence hold failure releases acquired holds", func(t *testing.T) {
		uc, bookingLedger := newPackageFixture()
		bookingLedger.failHoldAt = 1
		bookingLedger.holdErr = ledger.ErrSlotUnavailable

		_, err := uc.Execute(context.Background(), packageRequest(100, 101, 102))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPartialFailure)
		assert.ErrorIs(t, err, ledger.ErrSlotUnavailable)

		var partial *PartialFailureError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, 1, partial.FailedIndex)
		assert.Equal(t, int64(101), partial.ServiceID)

		assert.Len(t, bookingLedger.released, 1)
		assert.Empty(t, bookingLedger.commitKeys)
	})

	t.Run("first hold failure reports index zero", func(t *testing.T) {
		uc, bookingLedger := newPackageFixture()
		bookingLedger.failHoldAt = 0
		bookingLedger.holdErr = ledger.ErrOverbookingLimitExceeded

		_, err := uc.Execute(context.Background(), packageRequest(100, 101))

		var partial *PartialFailureError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, 0, partial.FailedIndex)
		assert.Equal(t, int64(100), partial.ServiceID)
		assert.Len(t, bookingLedger.released, 1)
	})

	t.Run("commit failure releases the package", func(t *testing.T) {
		uc, bookingLedger := newPackageFixture()
		bookingLedger.commitErr = ledger.ErrHoldExpired

		_, err := uc.Execute(context.Background(), packageRequest(100, 101))

		assert.ErrorIs(t, err, ledger.ErrHoldExpired)
		assert.NotErrorIs(t, err, ErrPartialFailure)
		assert.Len(t, bookingLedger.released, 1)
	})
}

// TestExecuteValidation тестирует валидацию запроса и состава пакета
func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *Request)
		wantErr error
	}{
		{
			name:    "zero client id",
			mutate:  func(req *Request) { req.ClientID = 0 },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty services",
			mutate:  func(req *Request) { req.ServiceIDs = nil },
			wantErr: ErrInvalidInput,
		},
		{
			name: "too many services",
			mutate: func(req *Request) {
				req.ServiceIDs = make([]int64, 11)
				for i := range req.ServiceIDs {
					req.ServiceIDs[i] = 100
				}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative service id",
			mutate:  func(req *Request) { req.ServiceIDs = []int64{100, -1} },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "zero date",
			mutate:  func(req *Request) { req.Date = time.Time{} },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "malformed start time",
			mutate:  func(req *Request) { req.StartTime = types.TimeString("25:99") },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown service",
			mutate:  func(req *Request) { req.ServiceIDs = []int64{100, 999} },
			wantErr: ErrServiceNotFound,
		},
		{
			name:    "service of another provider",
			mutate:  func(req *Request) { req.ServiceIDs = []int64{100, 200} },
			wantErr: ErrServiceNotFound,
		},
		{
			name: "timeline overflows the day",
			mutate: func(req *Request) {
				req.ServiceIDs = []int64{100, 100}
				req.StartTime = types.TimeString("23:30")
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, bookingLedger := newPackageFixture()
			req := packageRequest(100, 101)
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, bookingLedger.holds)
			assert.Empty(t, bookingLedger.released)
		})
	}
}

// TestConsecutiveStartTimes тестирует раскладку услуг по таймлайну дня
func TestConsecutiveStartTimes(t *testing.T) {
	tests := []struct {
		name     string
		first    types.TimeString
		services []*catalogservice.Service
		want     []types.TimeString
		wantErr  bool
	}{
		{
			name:  "buffers shift the next service",
			first: types.TimeString("09:00"),
			services: []*catalogservice.Service{
				{DurationMinutes: 60, BufferAfterMinutes: 15},
				{DurationMinutes: 30},
			},
			want: []types.TimeString{"09:00", "10:15"},
		},
		{
			name:  "last service buffer does not matter",
			first: types.TimeString("23:00"),
			services: []*catalogservice.Service{
				{DurationMinutes: 30},
				{DurationMinutes: 30, BufferAfterMinutes: 60},
			},
			want: []types.TimeString{"23:00", "23:30"},
		},
		{
			name:  "intermediate overflow",
			first: types.TimeString("23:00"),
			services: []*catalogservice.Service{
				{DurationMinutes: 90},
				{DurationMinutes: 30},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starts, err := consecutiveStartTimes(tt.first, tt.services)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, starts)
		})
	}
}

// TestPartialFailureErrorUnwrap тестирует сопоставление ошибки отказа пакета
func TestPartialFailureErrorUnwrap(t *testing.T) {
	cause := errors.New("capacity gone")
	err := &PartialFailureError{FailedIndex: 2, ServiceID: 102, Err: cause}

	assert.ErrorIs(t, err, ErrPartialFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "index 2")
}
