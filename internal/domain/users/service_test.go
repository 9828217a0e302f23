package users

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyadmin/internal/core/apperror"
	appctx "easyadmin/internal/core/context"
	"easyadmin/internal/core/entity"
	"easyadmin/internal/core/security"
	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/filter"
	"easyadmin/internal/domain/query"
)

type memoryRepo struct {
	rows    map[int64]User
	nextID  int64
	deleted []int64
}

func newMemoryRepo(rows ...User) *memoryRepo {
	m := &memoryRepo{rows: make(map[int64]User), nextID: 100}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func fields(u User) map[string]any {
	return map[string]any{
		"id":              u.ID,
		"user_name":       u.UserName,
		"email":           u.Email,
		"status":          u.Status,
		"org_id":          u.OrgID,
		"created_user_id": u.CreatedUserID,
	}
}

func (m *memoryRepo) matching(where filter.Condition) []User {
	var out []User
	for _, u := range m.rows {
		if filter.Match(where, fields(u)) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryRepo) Count(ctx context.Context, where filter.Condition) (int64, error) {
	return int64(len(m.matching(where))), nil
}

func (m *memoryRepo) Select(ctx context.Context, spec query.Spec) ([]User, error) {
	out := m.matching(spec.Where)
	if spec.Offset >= len(out) {
		return nil, nil
	}
	out = out[spec.Offset:]
	if spec.Limit > 0 && spec.Limit < len(out) {
		out = out[:spec.Limit]
	}
	return out, nil
}

func (m *memoryRepo) Insert(ctx context.Context, u User) (int64, error) {
	m.nextID++
	u.ID = m.nextID
	m.rows[u.ID] = u
	return u.ID, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, u User) error {
	m.rows[id] = u
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type inlineTx struct{}

func (inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []audit.Record
}

func (m *memoryRecorder) Record(ctx context.Context, rec audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

type fixture struct {
	repo     *memoryRepo
	recorder *memoryRecorder
	audit    *audit.Interceptor
	svc      *Service
}

func owned(creator, org int64) entity.Owned {
	return entity.Owned{CreatedUserID: creator, OrgID: org}
}

func newFixture() *fixture {
	repo := newMemoryRepo(
		User{ID: 1, UserName: "ann", Owned: owned(10, 1)},
		User{ID: 2, UserName: "bob", Owned: owned(11, 1)},
		User{ID: 3, UserName: "cid", Owned: owned(10, 2)},
		User{ID: 4, UserName: "dee", Owned: owned(12, 3)},
	)
	recorder := &memoryRecorder{}
	interceptor := audit.NewInterceptor(recorder)

	perms := security.NewEvaluatorFor[User](true, nil)
	list := query.NewService(query.NewExecutor[User](repo), perms, ExcludedFields...)

	return &fixture{
		repo:     repo,
		recorder: recorder,
		audit:    interceptor,
		svc:      NewService(repo, list, inlineTx{}, interceptor),
	}
}

func (f *fixture) records(t *testing.T) []audit.Record {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.audit.Wait(ctx))

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	return append([]audit.Record(nil), f.recorder.records...)
}

var selfOnly = &security.Identity{UserID: 10, Roles: []security.Role{{ID: 1, DataScope: security.SelfOnly}}}

func TestUserIsPermissionAware(t *testing.T) {
	var u any = User{}
	_, aware := u.(security.PermissionAware)
	_, tracked := u.(security.CreatorTracked)
	assert.True(t, aware)
	assert.True(t, tracked)
	assert.True(t, security.NewEvaluatorFor[User](true, nil).Enabled)
}

func TestGetUserList_ScopedAndAudited(t *testing.T) {
	f := newFixture()

	page, err := f.svc.GetUserList(context.Background(), selfOnly, query.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	for _, u := range page.Items {
		assert.Equal(t, int64(10), u.CreatedUserID)
	}

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, audit.Query, recs[0].Action)
	assert.Empty(t, recs[0].Params)
	assert.Equal(t, "Query users", recs[0].Description)
}

func TestGetUserList_AnonymousSeesNothing(t *testing.T) {
	f := newFixture()

	page, err := f.svc.GetUserList(context.Background(), nil, query.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, query.Page[User]{Items: []User{}}, page)
}

func TestGetUser_HiddenLooksMissing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetUser(context.Background(), selfOnly, 2)
	assert.True(t, apperror.IsNotFound(err))

	u, err := f.svc.GetUser(context.Background(), selfOnly, 3)
	require.NoError(t, err)
	assert.Equal(t, "cid", u.UserName)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.DeleteUser(context.Background(), selfOnly, 1))
	err := f.svc.DeleteUser(context.Background(), selfOnly, 2)
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, []int64{1}, f.repo.deleted)

	recs := f.records(t)
	require.Len(t, recs, 2)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Params < recs[j].Params })
	assert.Equal(t, audit.Delete, recs[0].Action)
	assert.Equal(t, "[1]", recs[0].Params)
	assert.Equal(t, audit.Success, recs[0].Outcome)
	assert.Equal(t, "[2]", recs[1].Params)
	assert.Equal(t, audit.Failure, recs[1].Outcome)
}

func TestSaveUser_AddStampsCreator(t *testing.T) {
	f := newFixture()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: 10, UserName: "ann", OrgID: 2})

	saved, err := f.svc.SaveUser(ctx, selfOnly, User{UserName: " eve ", Email: "eve@example.com"}, audit.ChangeAdd)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "eve", saved.UserName)
	assert.Equal(t, StatusActive, saved.Status)
	assert.Equal(t, int64(10), saved.CreatedUserID)
	assert.Equal(t, int64(2), saved.OrgID)
	assert.False(t, saved.CreatedTime.IsZero())

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, audit.Create, recs[0].Action)
	assert.Contains(t, recs[0].Params, `"userName":" eve "`)
	assert.NotContains(t, recs[0].Params, "ChangeAdd")
	assert.Equal(t, "Create user", recs[0].Description)
}

func TestSaveUser_UpdateKeepsOwnership(t *testing.T) {
	f := newFixture()

	saved, err := f.svc.SaveUser(context.Background(), selfOnly,
		User{ID: 3, UserName: "cyd", Owned: owned(99, 99)}, audit.ChangeUpdate)
	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.CreatedUserID)
	assert.Equal(t, int64(2), saved.OrgID)
	assert.Equal(t, "cyd", f.repo.rows[3].UserName)

	_, err = f.svc.SaveUser(context.Background(), selfOnly, User{ID: 4, UserName: "x"}, audit.ChangeUpdate)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, "dee", f.repo.rows[4].UserName)

	recs := f.records(t)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, audit.Update, r.Action)
	}
}

func TestSaveUser_Invalid(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SaveUser(context.Background(), selfOnly, User{UserName: "x", Email: "nope"}, audit.ChangeAdd)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Len(t, f.repo.rows, 4)
}

func TestExportUsers(t *testing.T) {
	f := newFixture()

	var written []User
	err := f.svc.ExportUsers(context.Background(), selfOnly, query.Options{PageItems: 1, IsPage: true}, func(rows []User) error {
		written = rows
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, written, 2)

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, audit.Export, recs[0].Action)
	assert.Equal(t, "Export users", recs[0].Description)
}

func TestExcludedFieldIsIgnored(t *testing.T) {
	f := newFixture()
	opts := query.DefaultOptions()
	opts.Filters = []filter.Condition{filter.Leaf("password_hash", filter.Equal, "x")}

	page, err := f.svc.GetUserList(context.Background(), selfOnly, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
}
