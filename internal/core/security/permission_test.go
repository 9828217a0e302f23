package security

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyadmin/internal/domain/filter"
)

// stubOrgs returns a fixed department list per includeDescendants flag.
type stubOrgs struct {
	own   []int64
	below []int64
	err   error
	calls int
}

func (s *stubOrgs) ResolveOrgIDs(ctx context.Context, ident *Identity, role Role, includeDescendants bool) ([]int64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if includeDescendants {
		return s.below, nil
	}
	return s.own, nil
}

func newEvaluator(orgs OrgResolver) *Evaluator {
	return &Evaluator{Enabled: true, OwnerField: DefaultOwnerField, OrgField: DefaultOrgField, Orgs: orgs}
}

func user(roles ...Role) *Identity {
	return &Identity{UserID: 42, UserName: "ann", OrgID: 2, Roles: roles}
}

func TestEvaluate_Disabled(t *testing.T) {
	e := &Evaluator{Enabled: false}
	got, err := e.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, got.IsTrue())
}

func TestEvaluate_FailsClosedWithoutIdentity(t *testing.T) {
	e := newEvaluator(&stubOrgs{})

	for name, ident := range map[string]*Identity{
		"nil identity": nil,
		"no user id":   {Roles: []Role{{DataScope: AllData}}},
		"no roles":     {UserID: 42},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), ident)
			require.NoError(t, err)
			assert.True(t, got.IsFalse())
		})
	}
}

func TestEvaluate_AllDataWins(t *testing.T) {
	orgs := &stubOrgs{own: []int64{2}}
	e := newEvaluator(orgs)

	got, err := e.Evaluate(context.Background(), user(
		Role{ID: 1, DataScope: SelfOnly},
		Role{ID: 2, DataScope: Custom, CustomOrgIDs: "9"},
		Role{ID: 3, DataScope: AllData},
	))
	require.NoError(t, err)
	assert.True(t, got.IsTrue())
	assert.Zero(t, orgs.calls, "other roles must not be evaluated")
}

func TestEvaluate_SelfOnly(t *testing.T) {
	got, err := newEvaluator(nil).Evaluate(context.Background(), user(Role{DataScope: SelfOnly}))
	require.NoError(t, err)
	assert.Equal(t, filter.Leaf("created_user_id", filter.Equal, int64(42)), got)
}

func TestEvaluate_Departments(t *testing.T) {
	orgs := &stubOrgs{own: []int64{2}, below: []int64{2, 5, 6}}
	e := newEvaluator(orgs)

	got, err := e.Evaluate(context.Background(), user(Role{DataScope: DeptOnly}))
	require.NoError(t, err)
	assert.Equal(t, filter.Leaf("org_id", filter.InList, []int64{2}), got)

	got, err = e.Evaluate(context.Background(), user(Role{DataScope: DeptAndBelow}))
	require.NoError(t, err)
	assert.Equal(t, filter.Leaf("org_id", filter.InList, []int64{2, 5, 6}), got)
}

func TestEvaluate_EmptyDepartmentGrantsNothing(t *testing.T) {
	e := newEvaluator(&stubOrgs{})

	got, err := e.Evaluate(context.Background(), user(
		Role{DataScope: DeptOnly},
		Role{DataScope: SelfOnly},
	))
	require.NoError(t, err)
	// The empty department role is skipped; it does not block the SelfOnly grant.
	assert.Equal(t, filter.Leaf("created_user_id", filter.Equal, int64(42)), got)

	got, err = e.Evaluate(context.Background(), user(Role{DataScope: DeptOnly}))
	require.NoError(t, err)
	assert.True(t, got.IsFalse())
}

func TestEvaluate_CustomOrgs(t *testing.T) {
	got, err := newEvaluator(nil).Evaluate(context.Background(), user(
		Role{DataScope: Custom, CustomOrgIDs: "1,2,3"},
	))
	require.NoError(t, err)

	rows := []map[string]any{
		{"id": 1, "org_id": int64(1)},
		{"id": 2, "org_id": int64(3)},
		{"id": 3, "org_id": int64(4)},
		{"id": 4},
	}
	var visible []int
	for _, row := range rows {
		if filter.Match(got, row) {
			visible = append(visible, row["id"].(int))
		}
	}
	assert.Equal(t, []int{1, 2}, visible)
}

func TestEvaluate_CustomEmptyOrMalformed(t *testing.T) {
	e := newEvaluator(nil)

	got, err := e.Evaluate(context.Background(), user(Role{DataScope: Custom, CustomOrgIDs: ""}))
	require.NoError(t, err)
	assert.True(t, got.IsFalse())

	got, err = e.Evaluate(context.Background(), user(
		Role{DataScope: Custom, CustomOrgIDs: "1,abc"},
		Role{DataScope: Custom, CustomOrgIDs: "7"},
	))
	require.NoError(t, err)
	assert.Equal(t, filter.Leaf("org_id", filter.InList, []int64{7}), got)
}

func TestEvaluate_MultipleRolesAreOred(t *testing.T) {
	e := newEvaluator(&stubOrgs{own: []int64{2}})

	got, err := e.Evaluate(context.Background(), user(
		Role{DataScope: SelfOnly},
		Role{DataScope: DeptOnly},
		Role{DataScope: Custom, CustomOrgIDs: "8, 9"},
	))
	require.NoError(t, err)

	require.Equal(t, filter.Or, got.Logic)
	assert.Equal(t, []filter.Condition{
		filter.Leaf("created_user_id", filter.Equal, int64(42)),
		filter.Leaf("org_id", filter.InList, []int64{2}),
		filter.Leaf("org_id", filter.InList, []int64{8, 9}),
	}, got.Children)
}

func TestEvaluate_ResolverErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	e := newEvaluator(&stubOrgs{err: boom})

	got, err := e.Evaluate(context.Background(), user(Role{ID: 5, DataScope: DeptAndBelow}))
	assert.ErrorIs(t, err, boom)
	assert.True(t, got.IsFalse())
}

type ownedRow struct{}

func (ownedRow) DataPermission()  {}
func (ownedRow) CreatorID() int64 { return 0 }

type untrackedRow struct{}

func (untrackedRow) DataPermission() {}

func TestNewEvaluatorFor(t *testing.T) {
	assert.True(t, NewEvaluatorFor[ownedRow](true, nil).Enabled)
	assert.True(t, NewEvaluatorFor[*ownedRow](true, nil).Enabled)
	assert.False(t, NewEvaluatorFor[ownedRow](false, nil).Enabled)
	assert.False(t, NewEvaluatorFor[untrackedRow](true, nil).Enabled)
	assert.False(t, NewEvaluatorFor[struct{}](true, nil).Enabled)
}

func TestParseOrgIDs(t *testing.T) {
	ids, err := ParseOrgIDs(" 1, 2,,3 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = ParseOrgIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseOrgIDs("1;2")
	assert.Error(t, err)
}

func TestDataScopeNames(t *testing.T) {
	for _, s := range []DataScope{AllData, DeptAndBelow, DeptOnly, SelfOnly, Custom} {
		parsed, err := ParseDataScope(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseDataScope("everything")
	assert.Error(t, err)
}

func TestEvaluate_ZeroScopeGrantsNothing(t *testing.T) {
	e := &Evaluator{Enabled: true}
	pred, err := e.Evaluate(context.Background(), &Identity{UserID: 1, Roles: []Role{{ID: 9}}})
	require.NoError(t, err)
	assert.True(t, pred.IsFalse())
}
