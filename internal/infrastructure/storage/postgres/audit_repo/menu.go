package audit_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"easyadmin/internal/domain/audit"
	"easyadmin/internal/infrastructure/storage/postgres"
)

// MenuRepo reads menu labels from sys_menu.
type MenuRepo struct {
	txm *postgres.TxManager
}

// NewMenuRepo creates a MenuRepo.
func NewMenuRepo(txm *postgres.TxManager) *MenuRepo {
	return &MenuRepo{txm: txm}
}

// MenuLabel implements audit.MenuResolver.
func (r *MenuRepo) MenuLabel(ctx context.Context, path string) (string, error) {
	var labels []string
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &labels,
		`SELECT label FROM sys_menu WHERE path = $1 ORDER BY id LIMIT 1`, path)
	if err != nil {
		return "", fmt.Errorf("menu label for %q: %w", path, err)
	}
	if len(labels) == 0 {
		return "", nil
	}
	return labels[0], nil
}

var _ audit.MenuResolver = (*MenuRepo)(nil)
