// Package audit хранилище журнала аудита. Записывается на каждом переходе
// статуса и каждом policy-решении; ошибка записи аудита не должна ронять
// бизнес-операцию - вызывающие логируют ее и продолжают.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var (
	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("audit.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("audit.repository: failed to execute query")
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий журнала аудита
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория аудита
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Record пишет событие аудита. Если в контексте есть активная транзакция,
// запись попадает в нее и фиксируется вместе с бизнес-операцией.
func (r *Repository) Record(ctx context.Context, e *domain.AuditEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("audit_log").
		Columns("event_type", "actor", "entity_id", "before", "after").
		Values(e.EventType, e.Actor, e.EntityID, e.Before, e.After).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Record - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Record - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}
