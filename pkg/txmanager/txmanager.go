// Package txmanager менеджер сериализуемых транзакций с повторными
// попытками при конфликтах сериализации.
//
// Postgres на уровне изоляции SERIALIZABLE откатывает одну из конкурирующих
// транзакций с кодом 40001 (serialization_failure) или 40P01 (deadlock_detected).
// Такие ошибки не являются бизнес-ошибками: транзакция повторяется с
// ограниченным backoff и наружу не выходит, пока не исчерпаны попытки.
package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

const (
	maxAttempts    = 5
	initialBackoff = 10 * time.Millisecond
	maxBackoff     = 200 * time.Millisecond
)

var (
	// ErrRetriesExhausted возвращается, когда все попытки выполнить
	// транзакцию завершились конфликтом сериализации
	ErrRetriesExhausted = errors.New("txmanager: serialization retries exhausted")
)

// TxBeginner интерфейс открытия транзакций
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager выполняет функции в сериализуемых транзакциях
type TransactionManager struct {
	db TxBeginner
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE.
// Транзакция передается fn через context (dbmetrics.WithTx); репозитории
// подхватывают ее через dbmetrics.GetExecutor. При конфликте сериализации
// fn выполняется повторно, поэтому fn не должна иметь побочных эффектов
// вне транзакции.
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}

		if attempt == maxAttempts {
			return fmt.Errorf("%w: %d attempts: %v", ErrRetriesExhausted, maxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return ErrRetriesExhausted
}

func (m *TransactionManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("txmanager: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("txmanager: commit transaction: %w", err)
	}

	return nil
}

// isSerializationFailure проверяет, является ли ошибка конфликтом
// сериализации или deadlock (коды 40001 и 40P01)
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
