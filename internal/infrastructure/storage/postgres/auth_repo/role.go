// Package auth_repo provides PostgreSQL lookups for roles and the department tree.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"easyadmin/internal/core/security"
	"easyadmin/internal/domain/auth"
	"easyadmin/internal/infrastructure/storage/postgres"
)

// RoleRepo implements auth.RoleRepository.
type RoleRepo struct {
	txm *postgres.TxManager
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(txm *postgres.TxManager) *RoleRepo {
	return &RoleRepo{txm: txm}
}

const rolesForUserSQL = `
	SELECT r.id, r.code, r.name, r.data_scope, COALESCE(r.custom_org_ids, '') AS custom_org_ids
	FROM sys_role r
	INNER JOIN sys_user_role ur ON ur.role_id = r.id
	WHERE ur.user_id = $1 AND r.enabled = TRUE
	ORDER BY r.id
`

// RolesForUser returns every enabled role assigned to userID.
func (r *RoleRepo) RolesForUser(ctx context.Context, userID int64) ([]security.Role, error) {
	var roles []security.Role
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &roles, rolesForUserSQL, userID); err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	return roles, nil
}

const orgOfUserSQL = `SELECT org_id FROM sys_user WHERE id = $1`

// OrgOfUser returns the current department of userID.
func (r *RoleRepo) OrgOfUser(ctx context.Context, userID int64) (int64, bool, error) {
	var orgID int64
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &orgID, orgOfUserSQL, userID); err != nil {
		if pgxscan.NotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query department: %w", err)
	}
	return orgID, true, nil
}

var _ auth.RoleRepository = (*RoleRepo)(nil)
