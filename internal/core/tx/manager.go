// Package tx provides transaction management abstractions so domain code does
// not depend on a specific driver.
package tx

import (
	"context"
)

// Manager runs fn inside a transaction: rolled back when fn fails, committed
// otherwise. Nested calls reuse the transaction already in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions, used to take the count and the
// page of a list query from one snapshot.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
