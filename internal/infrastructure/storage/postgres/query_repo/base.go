// Package query_repo provides PostgreSQL list sources and CRUD for owned entities.
package query_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/domain/filter"
	"easyadmin/internal/domain/query"
	"easyadmin/internal/infrastructure/storage/postgres"
)

// BaseRepo implements query.Source and basic CRUD for one table whose columns
// are the "db" tags of T.
type BaseRepo[T any] struct {
	txm       *postgres.TxManager
	tableName string
	columns   []string
	allowed   map[string]struct{}
	immutable map[string]struct{}
}

var _ query.Source[struct{}] = (*BaseRepo[struct{}])(nil)

// NewBaseRepo creates a repository over tableName. Columns listed in
// immutable are skipped by Update.
func NewBaseRepo[T any](txm *postgres.TxManager, tableName string, immutable ...string) *BaseRepo[T] {
	columns := postgres.ExtractDBColumns[T]()

	allowed := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		allowed[col] = struct{}{}
	}
	frozen := map[string]struct{}{"id": {}}
	for _, col := range immutable {
		frozen[col] = struct{}{}
	}

	return &BaseRepo[T]{
		txm:       txm,
		tableName: tableName,
		columns:   columns,
		allowed:   allowed,
		immutable: frozen,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// TableName returns the table the repository reads.
func (r *BaseRepo[T]) TableName() string {
	return r.tableName
}

func (r *BaseRepo[T]) where(q squirrel.SelectBuilder, c filter.Condition) (squirrel.SelectBuilder, error) {
	if c.IsTrue() {
		return q, nil
	}
	pred, err := Render(c, r.allowed)
	if err != nil {
		return q, err
	}
	return q.Where(pred), nil
}

func (r *BaseRepo[T]) countQuery(where filter.Condition) (squirrel.SelectBuilder, error) {
	return r.where(r.Builder().Select("COUNT(*)").From(r.tableName), where)
}

func (r *BaseRepo[T]) selectQuery(spec query.Spec) (squirrel.SelectBuilder, error) {
	q, err := r.where(r.Builder().Select(r.columns...).From(r.tableName), spec.Where)
	if err != nil {
		return q, err
	}

	orderBy, err := OrderBy(spec.OrderBy, r.allowed)
	if err != nil {
		return q, err
	}
	q = q.OrderBy(orderBy...)

	if spec.Limit > 0 {
		q = q.Limit(uint64(spec.Limit))
	}
	if spec.Offset > 0 {
		q = q.Offset(uint64(spec.Offset))
	}
	return q, nil
}

// Count returns the number of rows matching where.
func (r *BaseRepo[T]) Count(ctx context.Context, where filter.Condition) (int64, error) {
	q, err := r.countQuery(where)
	if err != nil {
		return 0, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tableName, err)
	}
	return total, nil
}

// Select returns the rows described by spec.
func (r *BaseRepo[T]) Select(ctx context.Context, spec query.Spec) ([]T, error) {
	q, err := r.selectQuery(spec)
	if err != nil {
		return nil, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return items, nil
}

// GetByID retrieves one row by primary key.
func (r *BaseRepo[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var entity T

	sql, args, err := r.Builder().
		Select(r.columns...).
		From(r.tableName).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, id)
		}
		return entity, fmt.Errorf("get by id: %w", err)
	}
	return entity, nil
}

func (r *BaseRepo[T]) insertQuery(entity T) (squirrel.InsertBuilder, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in %T", entity)
	}
	delete(data, "id")

	return r.Builder().
		Insert(r.tableName).
		SetMap(data).
		Suffix("RETURNING id"), nil
}

// Insert writes entity and returns the generated id.
func (r *BaseRepo[T]) Insert(ctx context.Context, entity T) (int64, error) {
	q, err := r.insertQuery(entity)
	if err != nil {
		return 0, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, r.translate(err, "insert")
	}
	return id, nil
}

func (r *BaseRepo[T]) updateQuery(id int64, entity T) (squirrel.UpdateBuilder, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return squirrel.UpdateBuilder{}, fmt.Errorf("no db tags found in %T", entity)
	}
	for col := range r.immutable {
		delete(data, col)
	}

	return r.Builder().
		Update(r.tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": id}), nil
}

// Update overwrites the mutable columns of row id.
func (r *BaseRepo[T]) Update(ctx context.Context, id int64, entity T) error {
	q, err := r.updateQuery(id, entity)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.translate(err, "update")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, id)
	}
	return nil
}

// Delete physically removes row id.
func (r *BaseRepo[T]) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.translate(err, "delete")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, id)
	}
	return nil
}

// translate maps constraint violations to conflicts and wraps everything else.
func (r *BaseRepo[T]) translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperror.NewConflict("duplicate value").
				WithDetail("entity", r.tableName).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case "23503":
			return apperror.NewConflict("row is referenced by other records").
				WithDetail("entity", r.tableName).
				WithCause(err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, r.tableName, err)
}
