package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// configColumns колонки таблицы scheduling_configs в порядке сканирования
var configColumns = []string{
	"id",
	"provider_id",
	"location_id",
	"service_id",
	"slot_granularity_minutes",
	"base_capacity",
	"overbooking_percent",
	"advance_booking_days",
	"min_booking_notice_minutes",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с конфигурацией расписания
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория конфигурации расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую конфигурацию расписания
func (r *Repository) Create(ctx context.Context, config *domain.SchedulingConfig) (*domain.SchedulingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("scheduling_configs").
		Columns(
			"provider_id",
			"location_id",
			"service_id",
			"slot_granularity_minutes",
			"base_capacity",
			"overbooking_percent",
			"advance_booking_days",
			"min_booking_notice_minutes",
		).
		Values(
			config.ProviderID,
			config.LocationID,
			config.ServiceID,
			config.SlotGranularityMinutes,
			config.BaseCapacity,
			config.OverbookingPercent,
			config.AdvanceBookingDays,
			config.MinBookingNoticeMinutes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&config.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicateConfig
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	config.CreatedAt = createdAt.Time
	config.UpdatedAt = updatedAt.Time

	return config, nil
}

// GetByID получает конфигурацию по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.SchedulingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(configColumns...).
		From("scheduling_configs").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	config, err := scanConfig(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan config: %v", ErrScanRow, err)
	}

	return config, nil
}

// GetExact получает конфигурацию для точной комбинации провайдера, локации и услуги.
// nil в locationID или serviceID означает поиск строки с NULL в соответствующей колонке.
func (r *Repository) GetExact(ctx context.Context, providerID int64, locationID, serviceID *int64) (*domain.SchedulingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(configColumns...).
		From("scheduling_configs").
		Where(squirrel.Eq{"provider_id": providerID})

	if locationID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"location_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"location_id": *locationID})
	}

	if serviceID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": *serviceID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetExact - build select query: %v", ErrBuildQuery, err)
	}

	config, err := scanConfig(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetExact - scan config: %v", ErrScanRow, err)
	}

	return config, nil
}

// GetConfigWithHierarchy получает конфигурацию с учетом иерархии приоритетов.
// Приоритет применения конфигурации:
// 1. Конфигурация для конкретной услуги в конкретной локации (locationID, serviceID)
// 2. Конфигурация для всех услуг в конкретной локации (locationID, NULL)
// 3. Конфигурация для конкретной услуги во всех локациях (NULL, serviceID)
// 4. Глобальная конфигурация провайдера (NULL, NULL)
//
// Если конфигурация не найдена ни на одном уровне, возвращает ErrConfigNotFound
func (r *Repository) GetConfigWithHierarchy(ctx context.Context, providerID int64, locationID, serviceID *int64) (*domain.SchedulingConfig, error) {
	// 1. Конфигурация для конкретной услуги в конкретной локации
	if locationID != nil && serviceID != nil {
		config, err := r.GetExact(ctx, providerID, locationID, serviceID)
		if err == nil {
			return config, nil
		}
		if err != ErrConfigNotFound {
			return nil, fmt.Errorf("%w: GetConfigWithHierarchy - level 1 (location+service): %v", ErrExecQuery, err)
		}
	}

	// 2. Конфигурация для всех услуг в конкретной локации
	if locationID != nil {
		config, err := r.GetExact(ctx, providerID, locationID, nil)
		if err == nil {
			return config, nil
		}
		if err != ErrConfigNotFound {
			return nil, fmt.Errorf("%w: GetConfigWithHierarchy - level 2 (location only): %v", ErrExecQuery, err)
		}
	}

	// 3. Конфигурация для конкретной услуги во всех локациях
	if serviceID != nil {
		config, err := r.GetExact(ctx, providerID, nil, serviceID)
		if err == nil {
			return config, nil
		}
		if err != ErrConfigNotFound {
			return nil, fmt.Errorf("%w: GetConfigWithHierarchy - level 3 (service only): %v", ErrExecQuery, err)
		}
	}

	// 4. Глобальная конфигурация провайдера
	config, err := r.GetExact(ctx, providerID, nil, nil)
	if err == nil {
		return config, nil
	}
	if err != ErrConfigNotFound {
		return nil, fmt.Errorf("%w: GetConfigWithHierarchy - level 4 (global): %v", ErrExecQuery, err)
	}

	return nil, ErrConfigNotFound
}

// GetAllByProvider получает все конфигурации провайдера
func (r *Repository) GetAllByProvider(ctx context.Context, providerID int64) ([]*domain.SchedulingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(configColumns...).
		From("scheduling_configs").
		Where(squirrel.Eq{"provider_id": providerID}).
		OrderBy("location_id ASC NULLS FIRST, service_id ASC NULLS FIRST"). // Глобальная конфигурация первой
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAllByProvider - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAllByProvider - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	configs := make([]*domain.SchedulingConfig, 0)

	for rows.Next() {
		config, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetAllByProvider - scan row: %v", ErrScanRow, err)
		}
		configs = append(configs, config)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAllByProvider - rows error: %v", ErrScanRow, err)
	}

	return configs, nil
}

// Update обновляет параметры конфигурации расписания
func (r *Repository) Update(ctx context.Context, id int64, config *domain.SchedulingConfig) (*domain.SchedulingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("scheduling_configs").
		Set("slot_granularity_minutes", config.SlotGranularityMinutes).
		Set("base_capacity", config.BaseCapacity).
		Set("overbooking_percent", config.OverbookingPercent).
		Set("advance_booking_days", config.AdvanceBookingDays).
		Set("min_booking_notice_minutes", config.MinBookingNoticeMinutes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	config.ID = id
	config.CreatedAt = createdAt.Time
	config.UpdatedAt = updatedAt.Time

	return config, nil
}

// Delete удаляет конфигурацию расписания
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("scheduling_configs").
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
		return ErrConfigNotFound
	}

	return nil
}

// rowScanner общий интерфейс для *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfig(row rowScanner) (*domain.SchedulingConfig, error) {
	var config domain.SchedulingConfig
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&config.ID,
		&config.ProviderID,
		&config.LocationID,
		&config.ServiceID,
		&config.SlotGranularityMinutes,
		&config.BaseCapacity,
		&config.OverbookingPercent,
		&config.AdvanceBookingDays,
		&config.MinBookingNoticeMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	config.CreatedAt = createdAt.Time
	config.UpdatedAt = updatedAt.Time

	return &config, nil
}
