package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"easyadmin/internal/core/security"
	"easyadmin/internal/infrastructure/storage/postgres"
)

// OrgRepo resolves departments from the sys_org tree.
type OrgRepo struct {
	txm *postgres.TxManager
}

// NewOrgRepo creates a new department repository.
func NewOrgRepo(txm *postgres.TxManager) *OrgRepo {
	return &OrgRepo{txm: txm}
}

const orgSubtreeSQL = `
	WITH RECURSIVE tree AS (
		SELECT id FROM sys_org WHERE id = $1 AND enabled = TRUE

		UNION ALL

		SELECT o.id
		FROM sys_org o
		INNER JOIN tree t ON o.parent_id = t.id
		WHERE o.enabled = TRUE
	)
	SELECT id FROM tree ORDER BY id
`

// ResolveOrgIDs returns the caller's department, plus every descendant when
// includeDescendants is set. A user without a department resolves to nothing.
func (r *OrgRepo) ResolveOrgIDs(ctx context.Context, ident *security.Identity, role security.Role, includeDescendants bool) ([]int64, error) {
	if ident == nil || ident.OrgID == 0 {
		return nil, nil
	}
	if !includeDescendants {
		return []int64{ident.OrgID}, nil
	}

	var ids []int64
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &ids, orgSubtreeSQL, ident.OrgID); err != nil {
		return nil, fmt.Errorf("resolve org subtree of %d: %w", ident.OrgID, err)
	}
	return ids, nil
}

var _ security.OrgResolver = (*OrgRepo)(nil)
