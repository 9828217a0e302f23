// Package auth turns a bearer token into the identity consumed by data
// permissions. Login, refresh and password handling live elsewhere.
package auth

import (
	"context"

	"easyadmin/internal/core/security"
)

// RoleRepository loads what a user may see: the roles they hold and the
// department they currently belong to.
type RoleRepository interface {
	// RolesForUser returns every enabled role assigned to userID.
	RolesForUser(ctx context.Context, userID int64) ([]security.Role, error)

	// OrgOfUser returns the current department of userID. found is false
	// when the user no longer exists.
	OrgOfUser(ctx context.Context, userID int64) (orgID int64, found bool, err error)
}
