package waitlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// entryColumns колонки таблицы waitlist_entries в порядке сканирования
var entryColumns = []string{
	"id",
	"client_id",
	"provider_id",
	"location_id",
	"service_id",
	"desired_date",
	"window_start",
	"window_end",
	"status",
	"offered_at",
	"offer_expires_at",
	"offer_start",
	"offer_duration_minutes",
	"requested_at",
	"seq",
}

// Repository репозиторий листа ожидания
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория листа ожидания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет запись в лист ожидания.
// Порядок FIFO фиксируется парой (requested_at, seq): seq монотонно
// растет и разрешает равенство времени вставки.
func (r *Repository) Create(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("waitlist_entries").
		Columns(
			"client_id",
			"provider_id",
			"location_id",
			"service_id",
			"desired_date",
			"window_start",
			"window_end",
			"status",
		).
		Values(
			e.ClientID,
			e.ProviderID,
			e.LocationID,
			e.ServiceID,
			e.DesiredDate,
			e.WindowStart,
			e.WindowEnd,
			domain.WaitlistWaiting,
		).
		Suffix("RETURNING id, requested_at, seq").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.RequestedAt, &e.Seq)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	e.Status = domain.WaitlistWaiting
	return e, nil
}

// GetByID получает запись по ID. Внутри транзакции строка блокируется
// (FOR UPDATE) - подтверждение и просрочка оффера не должны гоняться.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(entryColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	e, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan entry: %v", ErrScanRow, err)
	}

	return e, nil
}

// GetWaitingByProviderDate получает ожидающие записи провайдера на дату
// в порядке FIFO (requested_at ASC, seq ASC)
func (r *Repository) GetWaitingByProviderDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(entryColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.Eq{"desired_date": date}).
		Where(squirrel.Eq{"status": domain.WaitlistWaiting}).
		OrderBy("requested_at ASC, seq ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWaitingByProviderDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWaitingByProviderDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetExpiredOffers получает записи с просроченными офферами для sweeper-а
func (r *Repository) GetExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(entryColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"status": domain.WaitlistOffered}).
		Where(squirrel.LtOrEq{"offer_expires_at": now}).
		OrderBy("offer_expires_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetExpiredOffers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetExpiredOffers - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// MarkOffered переводит запись waiting -> offered с фиксацией параметров
// оффера. Условное обновление: при продутой гонке возвращает ErrStatusConflict.
func (r *Repository) MarkOffered(ctx context.Context, id int64, offerStart types.TimeString, offerDuration int, offeredAt, expiresAt time.Time) error {
	return r.conditionalUpdate(ctx, "MarkOffered",
		psqlbuilder.Update("waitlist_entries").
			Set("status", domain.WaitlistOffered).
			Set("offered_at", offeredAt).
			Set("offer_expires_at", expiresAt).
			Set("offer_start", offerStart).
			Set("offer_duration_minutes", offerDuration).
			Where(squirrel.Eq{"id": id}).
			Where(squirrel.Eq{"status": domain.WaitlistWaiting}),
	)
}

// MarkConfirmed переводит запись offered -> confirmed.
// Условие по статусу гарантирует единственного победителя: из двух
// конкурирующих подтверждений одной записи строку обновит только первое.
func (r *Repository) MarkConfirmed(ctx context.Context, id int64) error {
	return r.conditionalUpdate(ctx, "MarkConfirmed",
		psqlbuilder.Update("waitlist_entries").
			Set("status", domain.WaitlistConfirmed).
			Where(squirrel.Eq{"id": id}).
			Where(squirrel.Eq{"status": domain.WaitlistOffered}),
	)
}

// MarkExpired переводит запись offered -> expired (просрочка или ранний
// отказ от оффера)
func (r *Repository) MarkExpired(ctx context.Context, id int64) error {
	return r.conditionalUpdate(ctx, "MarkExpired",
		psqlbuilder.Update("waitlist_entries").
			Set("status", domain.WaitlistExpired).
			Where(squirrel.Eq{"id": id}).
			Where(squirrel.Eq{"status": domain.WaitlistOffered}),
	)
}

func (r *Repository) conditionalUpdate(ctx context.Context, op string, builder squirrel.UpdateBuilder) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry сканирует одну строку в запись листа ожидания
func scanEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	var offerStart sql.NullString
	var offerDuration sql.NullInt64

	err := row.Scan(
		&e.ID,
		&e.ClientID,
		&e.ProviderID,
		&e.LocationID,
		&e.ServiceID,
		&e.DesiredDate,
		&e.WindowStart,
		&e.WindowEnd,
		&e.Status,
		&e.OfferedAt,
		&e.OfferExpiresAt,
		&offerStart,
		&offerDuration,
		&e.RequestedAt,
		&e.Seq,
	)
	if err != nil {
		return nil, err
	}

	if offerStart.Valid {
		s := offerStart.String
		if len(s) >= 5 {
			s = s[:5]
		}
		ts, err := types.NewTimeStringFromString(s)
		if err != nil {
			return nil, err
		}
		e.OfferStart = &ts
	}
	if offerDuration.Valid {
		d := int(offerDuration.Int64)
		e.OfferDuration = &d
	}

	return &e, nil
}

// scanEntries сканирует результаты запроса в слайс записей
func scanEntries(rows *sql.Rows) ([]*domain.WaitlistEntry, error) {
	entries := make([]*domain.WaitlistEntry, 0)

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanEntries - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanEntries - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}
