package query

import (
	"context"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/core/security"
	"easyadmin/internal/domain/filter"
)

// Service is the list pipeline for one entity type: compile the filter
// channels, evaluate data permissions for the caller, then page.
type Service[T any] struct {
	exec     *Executor[T]
	perms    *security.Evaluator
	excluded []string
}

// NewService creates a Service. Fields in excluded are never filterable,
// whatever channel they arrive on.
func NewService[T any](exec *Executor[T], perms *security.Evaluator, excluded ...string) *Service[T] {
	return &Service[T]{exec: exec, perms: perms, excluded: excluded}
}

// Query returns the page of T visible to ident.
func (s *Service[T]) Query(ctx context.Context, ident *security.Identity, opts Options) (Page[T], error) {
	where, err := s.Compile(opts.Request)
	if err != nil {
		return Page[T]{}, err
	}

	permission, err := s.perms.Evaluate(ctx, ident)
	if err != nil {
		return Page[T]{}, err
	}

	return s.exec.Page(ctx, where, permission, opts)
}

// All returns every row visible to ident, ignoring the paging fields of opts.
func (s *Service[T]) All(ctx context.Context, ident *security.Identity, opts Options) (Page[T], error) {
	opts.IsPage = false
	return s.Query(ctx, ident, opts)
}

// Compile merges the request channels and validates the resulting tree.
func (s *Service[T]) Compile(req filter.Request) (filter.Condition, error) {
	where := filter.Compile(req, s.excluded...)
	if err := where.Validate(); err != nil {
		return filter.Condition{}, apperror.NewInvalidFilter("", err.Error())
	}
	return where, nil
}
