// Package log_repo stores application log entries in sys_log.
package log_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/pkg/logger"
)

// Writer implements logger.Sink over sys_log.
type Writer struct {
	txm *postgres.TxManager
}

// NewWriter creates a Writer.
func NewWriter(txm *postgres.TxManager) *Writer {
	return &Writer{txm: txm}
}

func (w *Writer) insertQuery(e logger.Entry) squirrel.InsertBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("sys_log").
		Columns("created_time", "log_level", "category", "message", "exception").
		Values(e.Time, e.Level, e.Category, e.Message, e.Exception)
}

// WriteEntry inserts one entry through the pool, never inside a caller
// transaction.
func (w *Writer) WriteEntry(ctx context.Context, e logger.Entry) error {
	sql, args, err := w.insertQuery(e).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := w.txm.Pool().Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (w *Writer) purgeQuery(before time.Time) squirrel.DeleteBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Delete("sys_log").
		Where(squirrel.Lt{"created_time": before})
}

// Purge deletes entries created before the cutoff.
func (w *Writer) Purge(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := w.purgeQuery(before).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge: %w", err)
	}
	result, err := w.txm.Pool().Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge log: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ logger.Sink = (*Writer)(nil)
