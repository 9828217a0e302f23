package query

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/core/tx"
	"easyadmin/internal/domain/filter"
)

var tracer = otel.Tracer("easyadmin/query")

// Source is the storage side of a list query.
type Source[T any] interface {
	// Count returns the number of rows matching where.
	Count(ctx context.Context, where filter.Condition) (int64, error)

	// Select returns the rows described by spec, in spec order.
	Select(ctx context.Context, spec Spec) ([]T, error)
}

// Executor combines predicates with sorting and paging and runs them against a Source.
type Executor[T any] struct {
	source  Source[T]
	idField string
	tx      tx.ReadOnlyManager
}

// ExecutorOption configures an Executor.
type ExecutorOption[T any] func(*Executor[T])

// WithIDField sets the column used for the default ordering (default "id").
func WithIDField[T any](field string) ExecutorOption[T] {
	return func(e *Executor[T]) { e.idField = field }
}

// WithReadOnlyTx runs count and fetch inside one read-only transaction.
func WithReadOnlyTx[T any](m tx.ReadOnlyManager) ExecutorOption[T] {
	return func(e *Executor[T]) { e.tx = m }
}

// NewExecutor creates an Executor over source.
func NewExecutor[T any](source Source[T], opts ...ExecutorOption[T]) *Executor[T] {
	e := &Executor[T]{source: source, idField: "id"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Page returns the rows matching where AND permission.
//
// TotalCount is the size of the filtered set before paging. With IsPage false
// all rows are returned and TotalCount equals len(Items). An always-false
// predicate returns an empty page without touching storage. Storage errors
// are returned as-is.
func (e *Executor[T]) Page(ctx context.Context, where, permission filter.Condition, opts Options) (Page[T], error) {
	ctx, span := tracer.Start(ctx, "query.page",
		trace.WithAttributes(
			attribute.Bool("query.paged", opts.IsPage),
			attribute.Int("query.page_index", opts.PageIndex),
			attribute.Int("query.page_items", opts.PageItems),
		))
	defer span.End()

	spec := Spec{
		Where:   filter.Conjoin(where, permission),
		OrderBy: e.ordering(opts),
	}
	if opts.IsPage {
		index, size, err := pageBounds(opts)
		if err != nil {
			return Page[T]{}, err
		}
		spec.Limit = size
		spec.Offset = (index - 1) * size
	}

	if spec.Where.IsFalse() {
		span.SetAttributes(attribute.Bool("query.denied", true))
		return Page[T]{Items: []T{}}, nil
	}

	var page Page[T]
	run := func(ctx context.Context) error {
		var err error
		page, err = e.fetch(ctx, spec, opts.IsPage)
		return err
	}

	var err error
	if e.tx != nil {
		err = e.tx.ReadOnly(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return Page[T]{}, err
	}

	span.SetAttributes(attribute.Int64("query.total", page.TotalCount))
	return page, nil
}

func (e *Executor[T]) fetch(ctx context.Context, spec Spec, paged bool) (Page[T], error) {
	if !paged {
		items, err := e.source.Select(ctx, spec)
		if err != nil {
			return Page[T]{}, fmt.Errorf("select: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		return Page[T]{Items: items, TotalCount: int64(len(items))}, nil
	}

	total, err := e.source.Count(ctx, spec.Where)
	if err != nil {
		return Page[T]{}, fmt.Errorf("count: %w", err)
	}
	if total == 0 || int64(spec.Offset) >= total {
		return Page[T]{Items: []T{}, TotalCount: total}, nil
	}

	items, err := e.source.Select(ctx, spec)
	if err != nil {
		return Page[T]{}, fmt.Errorf("select: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, TotalCount: total}, nil
}

// ordering picks exactly one of: the explicit sort list, the single named
// column, or the id ascending default.
func (e *Executor[T]) ordering(opts Options) []Sort {
	if len(opts.SortList) > 0 {
		out := make([]Sort, 0, len(opts.SortList))
		for _, s := range opts.SortList {
			if s.Order == Unset {
				s.Order = Asc
			}
			out = append(out, s)
		}
		return out
	}
	if opts.SortOrder != Unset && opts.SortName != "" {
		return []Sort{{Field: opts.SortName, Order: opts.SortOrder}}
	}
	return []Sort{{Field: e.idField, Order: Asc}}
}

func pageBounds(opts Options) (index, size int, err error) {
	index, size = opts.PageIndex, opts.PageItems
	if index == 0 {
		index = 1
	}
	if size == 0 {
		size = DefaultPageItems
	}
	// The offset (index-1)*size must fit in an int.
	if index < 1 || size < 1 || index-1 > math.MaxInt/size {
		return 0, 0, apperror.NewValidation("invalid paging").
			WithDetail("pageIndex", opts.PageIndex).
			WithDetail("pageItems", opts.PageItems)
	}
	return index, size, nil
}
