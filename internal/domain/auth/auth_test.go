package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "easyadmin/internal/core/context"
	"easyadmin/internal/core/security"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken(appctx.UserContext{
		UserID:   42,
		UserName: "alice",
		OrgID:    7,
		Roles:    []string{"ops"},
	})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.UserID)
	assert.Equal(t, "alice", user.UserName)
	assert.Equal(t, int64(7), user.OrgID)
	assert.Equal(t, []string{"ops"}, user.Roles)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWTService(DefaultJWTConfig("one")).
		GenerateAccessToken(appctx.UserContext{UserID: 1})
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("two")).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	cfg := DefaultJWTConfig("secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: 1})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

type stubRoles struct {
	roles []security.Role
	err   error
	calls int

	// orgs is the current department per user; a missing user is deleted.
	orgs   map[int64]int64
	orgErr error
}

func (s *stubRoles) RolesForUser(ctx context.Context, userID int64) ([]security.Role, error) {
	s.calls++
	return s.roles, s.err
}

func (s *stubRoles) OrgOfUser(ctx context.Context, userID int64) (int64, bool, error) {
	s.calls++
	if s.orgErr != nil {
		return 0, false, s.orgErr
	}
	org, ok := s.orgs[userID]
	return org, ok, nil
}

func TestIdentityService_Resolve(t *testing.T) {
	repo := &stubRoles{
		roles: []security.Role{{ID: 1, DataScope: security.SelfOnly}},
		orgs:  map[int64]int64{5: 2},
	}
	svc := NewIdentityService(repo)

	ident, err := svc.Resolve(context.Background(), &appctx.UserContext{UserID: 5, UserName: "bob", OrgID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), ident.UserID)
	assert.Equal(t, int64(2), ident.OrgID)
	assert.Equal(t, repo.roles, ident.Roles)
	assert.False(t, ident.Anonymous())
}

func TestIdentityService_DepartmentComesFromStorage(t *testing.T) {
	repo := &stubRoles{
		roles: []security.Role{{ID: 2, DataScope: security.DeptOnly}},
		orgs:  map[int64]int64{5: 9},
	}

	// The token still carries the department the user was moved out of.
	ident, err := NewIdentityService(repo).
		Resolve(context.Background(), &appctx.UserContext{UserID: 5, OrgID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(9), ident.OrgID)
}

func TestIdentityService_DeletedUserSeesNothing(t *testing.T) {
	repo := &stubRoles{roles: []security.Role{{ID: 1, DataScope: security.AllData}}}

	ident, err := NewIdentityService(repo).
		Resolve(context.Background(), &appctx.UserContext{UserID: 5, OrgID: 2})
	require.NoError(t, err)
	assert.True(t, ident.Anonymous())
	assert.Zero(t, ident.OrgID)
}

func TestIdentityService_AnonymousSkipsStorage(t *testing.T) {
	repo := &stubRoles{}
	ident, err := NewIdentityService(repo).Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ident.Anonymous())
	assert.Zero(t, repo.calls)
}

func TestIdentityService_PropagatesStorageError(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := NewIdentityService(&stubRoles{err: boom, orgs: map[int64]int64{1: 1}}).
		Resolve(context.Background(), &appctx.UserContext{UserID: 1})
	assert.ErrorIs(t, err, boom)

	_, err = NewIdentityService(&stubRoles{orgErr: boom}).
		Resolve(context.Background(), &appctx.UserContext{UserID: 1})
	assert.ErrorIs(t, err, boom)
}
