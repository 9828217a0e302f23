package audit_repo

import (
	"context"

	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/query"
	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/internal/infrastructure/storage/postgres/query_repo"
)

// LogRepo is the list source of the operation log screen. Rows come back with
// their params expanded.
type LogRepo struct {
	*query_repo.BaseRepo[audit.Record]
	store *Store
}

// NewLogRepo creates a LogRepo.
func NewLogRepo(txm *postgres.TxManager, store *Store) *LogRepo {
	return &LogRepo{
		BaseRepo: query_repo.NewBaseRepo[audit.Record](txm, "sys_operation_log"),
		store:    store,
	}
}

// Select implements query.Source.
func (r *LogRepo) Select(ctx context.Context, spec query.Spec) ([]audit.Record, error) {
	items, err := r.BaseRepo.Select(ctx, spec)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if err := r.store.Expand(&items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

var _ query.Source[audit.Record] = (*LogRepo)(nil)
