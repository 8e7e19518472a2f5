package noshow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий событий неявки
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория событий неявки
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет событие неявки клиента
func (r *Repository) Create(ctx context.Context, e *domain.NoShowEvent) (*domain.NoShowEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("no_show_events").
		Columns("client_id", "booking_id", "occurred_at").
		Values(e.ClientID, e.BookingID, e.OccurredAt).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&e.ID); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return e, nil
}

// GetByClientSince получает события неявки клиента начиная с указанного
// момента, от новых к старым. Используется для расчета rolling window.
func (r *Repository) GetByClientSince(ctx context.Context, clientID int64, since time.Time) ([]*domain.NoShowEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "client_id", "booking_id", "occurred_at").
		From("no_show_events").
		Where(squirrel.Eq{"client_id": clientID}).
		Where(squirrel.GtOrEq{"occurred_at": since}).
		OrderBy("occurred_at DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientSince - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientSince - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents сканирует результаты запроса в слайс событий
func scanEvents(rows *sql.Rows) ([]*domain.NoShowEvent, error) {
	events := make([]*domain.NoShowEvent, 0)

	for rows.Next() {
		var e domain.NoShowEvent
		if err := rows.Scan(&e.ID, &e.ClientID, &e.BookingID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("%w: scanEvents - scan row: %v", ErrScanRow, err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanEvents - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}
