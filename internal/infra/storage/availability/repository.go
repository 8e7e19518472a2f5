package availability

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

// Repository репозиторий расписания: повторяющиеся рабочие окна
// и исключения на конкретные даты
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ReplaceWindows заменяет все повторяющиеся окна провайдера новым набором.
// Валидация пересечений выполняется сервисом до вызова; репозиторий
// предполагает вызов внутри транзакции (delete + insert атомарны).
func (r *Repository) ReplaceWindows(ctx context.Context, providerID int64, windows []*domain.AvailabilityWindow) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	deleteQuery, deleteArgs, err := psqlbuilder.Delete("availability_windows").
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceWindows - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("%w: ReplaceWindows - execute delete: %v", ErrExecQuery, err)
	}

	if len(windows) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("availability_windows").
		Columns("provider_id", "weekday", "start_time", "end_time", "recurring")

	for _, w := range windows {
		insertBuilder = insertBuilder.Values(providerID, int(w.Weekday), w.StartTime, w.EndTime, w.Recurring)
	}

	insertQuery, insertArgs, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceWindows - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("%w: ReplaceWindows - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetWindowsByProvider получает все повторяющиеся окна провайдера
func (r *Repository) GetWindowsByProvider(ctx context.Context, providerID int64) ([]*domain.AvailabilityWindow, error) {
	return r.getWindows(ctx, squirrel.Eq{"provider_id": providerID})
}

// GetWindowsByWeekday получает окна провайдера на день недели
func (r *Repository) GetWindowsByWeekday(ctx context.Context, providerID int64, weekday time.Weekday) ([]*domain.AvailabilityWindow, error) {
	return r.getWindows(ctx, squirrel.And{
		squirrel.Eq{"provider_id": providerID},
		squirrel.Eq{"weekday": int(weekday)},
	})
}

func (r *Repository) getWindows(ctx context.Context, where squirrel.Sqlizer) ([]*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"provider_id",
		"weekday",
		"start_time",
		"end_time",
		"recurring",
		"created_at",
		"updated_at",
	).
		From("availability_windows").
		Where(where).
		OrderBy("weekday ASC, start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getWindows - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getWindows - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	windows := make([]*domain.AvailabilityWindow, 0)
	for rows.Next() {
		var w domain.AvailabilityWindow
		var weekday int
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&w.ID,
			&w.ProviderID,
			&weekday,
			&w.StartTime,
			&w.EndTime,
			&w.Recurring,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: getWindows - scan row: %v", ErrScanRow, err)
		}

		w.Weekday = time.Weekday(weekday)
		w.CreatedAt = createdAt.Time
		w.UpdatedAt = updatedAt.Time
		windows = append(windows, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getWindows - rows error: %v", ErrScanRow, err)
	}

	return windows, nil
}

// CreateException создает исключение из расписания на дату
func (r *Repository) CreateException(ctx context.Context, e *domain.AvailabilityException) (*domain.AvailabilityException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("availability_exceptions").
		Columns("provider_id", "date", "kind", "start_time", "end_time").
		Values(e.ProviderID, e.Date, e.Kind, e.StartTime, e.EndTime).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreateException - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&e.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateException - execute insert: %v", ErrExecQuery, err)
	}

	e.CreatedAt = createdAt.Time
	return e, nil
}

// GetExceptionsByDate получает исключения провайдера на конкретную дату
func (r *Repository) GetExceptionsByDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.AvailabilityException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"provider_id",
		"date",
		"kind",
		"start_time",
		"end_time",
		"created_at",
	).
		From("availability_exceptions").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.Eq{"date": date}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetExceptionsByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetExceptionsByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	exceptions := make([]*domain.AvailabilityException, 0)
	for rows.Next() {
		var e domain.AvailabilityException
		var startTime, endTime sql.NullString
		var createdAt sql.NullTime

		err := rows.Scan(
			&e.ID,
			&e.ProviderID,
			&e.Date,
			&e.Kind,
			&startTime,
			&endTime,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetExceptionsByDate - scan row: %v", ErrScanRow, err)
		}

		if e.StartTime, err = asTimeString(startTime); err != nil {
			return nil, fmt.Errorf("%w: GetExceptionsByDate - parse start_time: %v", ErrScanRow, err)
		}
		if e.EndTime, err = asTimeString(endTime); err != nil {
			return nil, fmt.Errorf("%w: GetExceptionsByDate - parse end_time: %v", ErrScanRow, err)
		}

		e.CreatedAt = createdAt.Time
		exceptions = append(exceptions, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetExceptionsByDate - rows error: %v", ErrScanRow, err)
	}

	return exceptions, nil
}

// asTimeString конвертирует nullable колонку TIME в *types.TimeString.
// Postgres возвращает "HH:MM:SS" - секунды отбрасываются.
func asTimeString(v sql.NullString) (*types.TimeString, error) {
	if !v.Valid {
		return nil, nil
	}

	s := v.String
	if len(s) >= 5 {
		s = s[:5]
	}

	ts, err := types.NewTimeStringFromString(s)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
