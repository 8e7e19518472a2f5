package hold

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// holdColumns колонки таблицы slot_holds в порядке сканирования
var holdColumns = []string{
	"id",
	"provider_id",
	"client_id",
	"location_id",
	"service_ids",
	"booking_date",
	"start_time",
	"duration_minutes",
	"buffer_before_minutes",
	"buffer_after_minutes",
	"overbooked",
	"package_key",
	"service_name",
	"service_price",
	"expires_at",
	"created_at",
}

// Repository репозиторий для работы с холдами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория холдов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает холд. Вызывается только внутри сериализуемой транзакции
// выдачи холда - вставка и подсчет занятости обязаны быть одной
// неделимой операцией.
func (r *Repository) Create(ctx context.Context, h *domain.SlotHold) (*domain.SlotHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slot_holds").
		Columns(
			"provider_id",
			"client_id",
			"location_id",
			"service_ids",
			"booking_date",
			"start_time",
			"duration_minutes",
			"buffer_before_minutes",
			"buffer_after_minutes",
			"overbooked",
			"package_key",
			"service_name",
			"service_price",
			"expires_at",
		).
		Values(
			h.ProviderID,
			h.ClientID,
			h.LocationID,
			pq.Array(h.ServiceIDs),
			h.BookingDate,
			h.StartTime,
			h.DurationMinutes,
			h.BufferBeforeMinutes,
			h.BufferAfterMinutes,
			h.Overbooked,
			h.PackageKey,
			h.ServiceName,
			h.ServicePrice,
			h.ExpiresAt,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&h.ID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	h.CreatedAt = createdAt.Time
	return h, nil
}

// GetByID получает холд по ID. Внутри транзакции строка блокируется
// (FOR UPDATE), чтобы commit и release не гонялись за один холд.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.SlotHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("slot_holds").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	h, err := scanHold(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan hold: %v", ErrScanRow, err)
	}

	return h, nil
}

// GetActiveByProviderDate получает неистекшие холды провайдера на дату.
// Внутри транзакции строки блокируются (FOR UPDATE) - вместе с блокировкой
// бронирований дня это дает линеаризуемый check-and-increment занятости.
func (r *Repository) GetActiveByProviderDate(ctx context.Context, providerID int64, date time.Time, now time.Time) ([]*domain.SlotHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("slot_holds").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProviderDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProviderDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

// GetByPackageKey получает холды пакетной резервации по возрастанию
// времени начала. Внутри транзакции строки блокируются (FOR UPDATE).
func (r *Repository) GetByPackageKey(ctx context.Context, packageKey string) ([]*domain.SlotHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("slot_holds").
		Where(squirrel.Eq{"package_key": packageKey}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPackageKey - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPackageKey - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

// Delete удаляет холд (release или конвертация в бронирование)
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_holds").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrHoldNotFound
	}

	return nil
}

// DeleteByPackageKey удаляет все холды пакетной резервации.
// Используется при откате пакета и при его успешном commit.
func (r *Repository) DeleteByPackageKey(ctx context.Context, packageKey string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_holds").
		Where(squirrel.Eq{"package_key": packageKey}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: DeleteByPackageKey - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: DeleteByPackageKey - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// DeleteExpired удаляет истекшие холды и возвращает их для аудита.
// Вызывается sweeper-ом; операция идемпотентна.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) ([]*domain.SlotHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_holds").
		Where(squirrel.LtOrEq{"expires_at": now}).
		Suffix("RETURNING " + joinColumns(holdColumns)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: DeleteExpired - build delete query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteExpired - execute delete: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanHold сканирует одну строку в холд
func scanHold(row rowScanner) (*domain.SlotHold, error) {
	var h domain.SlotHold
	var createdAt sql.NullTime

	err := row.Scan(
		&h.ID,
		&h.ProviderID,
		&h.ClientID,
		&h.LocationID,
		pq.Array(&h.ServiceIDs),
		&h.BookingDate,
		&h.StartTime,
		&h.DurationMinutes,
		&h.BufferBeforeMinutes,
		&h.BufferAfterMinutes,
		&h.Overbooked,
		&h.PackageKey,
		&h.ServiceName,
		&h.ServicePrice,
		&h.ExpiresAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	h.CreatedAt = createdAt.Time
	return &h, nil
}

// scanHolds сканирует результаты запроса в слайс холдов
func scanHolds(rows *sql.Rows) ([]*domain.SlotHold, error) {
	holds := make([]*domain.SlotHold, 0)

	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanHolds - scan row: %v", ErrScanRow, err)
		}
		holds = append(holds, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanHolds - rows error: %v", ErrScanRow, err)
	}

	return holds, nil
}
