package auth

import (
	"context"
	"fmt"

	appctx "easyadmin/internal/core/context"
	"easyadmin/internal/core/security"
)

// IdentityService builds the per-request security identity.
type IdentityService struct {
	roles RoleRepository
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(roles RoleRepository) *IdentityService {
	return &IdentityService{roles: roles}
}

// Resolve loads the roles and department of user. Both are read on every
// request so a revoked data scope or a department move takes effect without
// waiting for the token to expire. A user that no longer exists resolves to
// an identity without roles, which sees nothing.
func (s *IdentityService) Resolve(ctx context.Context, user *appctx.UserContext) (*security.Identity, error) {
	if user == nil || user.UserID == 0 {
		return &security.Identity{}, nil
	}

	orgID, found, err := s.roles.OrgOfUser(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("load department of user %d: %w", user.UserID, err)
	}
	if !found {
		return &security.Identity{UserID: user.UserID, UserName: user.UserName}, nil
	}

	roles, err := s.roles.RolesForUser(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("load roles for user %d: %w", user.UserID, err)
	}

	return &security.Identity{
		UserID:   user.UserID,
		UserName: user.UserName,
		OrgID:    orgID,
		Roles:    roles,
	}, nil
}
