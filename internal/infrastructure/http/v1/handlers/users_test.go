package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"easyadmin/internal/core/entity"
	"easyadmin/internal/core/security"
	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/filter"
	"easyadmin/internal/domain/query"
	"easyadmin/internal/domain/users"
	"easyadmin/internal/infrastructure/export"
	"easyadmin/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type userStore struct {
	rows map[int64]users.User
}

func (s *userStore) matching(where filter.Condition) []users.User {
	var out []users.User
	for _, u := range s.rows {
		row := map[string]any{"id": u.ID, "user_name": u.UserName, "created_user_id": u.CreatedUserID}
		if filter.Match(where, row) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *userStore) Count(ctx context.Context, where filter.Condition) (int64, error) {
	return int64(len(s.matching(where))), nil
}

func (s *userStore) Select(ctx context.Context, spec query.Spec) ([]users.User, error) {
	out := s.matching(spec.Where)
	if spec.Offset >= len(out) {
		return nil, nil
	}
	out = out[spec.Offset:]
	if spec.Limit > 0 && spec.Limit < len(out) {
		out = out[:spec.Limit]
	}
	return out, nil
}

func (s *userStore) Insert(ctx context.Context, u users.User) (int64, error) {
	u.ID = int64(len(s.rows) + 100)
	s.rows[u.ID] = u
	return u.ID, nil
}

func (s *userStore) Update(ctx context.Context, id int64, u users.User) error {
	s.rows[id] = u
	return nil
}

func (s *userStore) Delete(ctx context.Context, id int64) error {
	delete(s.rows, id)
	return nil
}

type noTx struct{}

func (noTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type discard struct{}

func (discard) Record(ctx context.Context, rec audit.Record) error { return nil }

// withIdentity stands in for the Auth middleware.
func withIdentity(ident *security.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(security.WithIdentity(c.Request.Context(), ident))
		c.Next()
	}
}

func newUserRouter(t *testing.T) (*gin.Engine, *userStore) {
	t.Helper()
	store := &userStore{rows: map[int64]users.User{
		1: {ID: 1, UserName: "ann", Owned: entity.Owned{CreatedUserID: 10}},
		2: {ID: 2, UserName: "bob", Owned: entity.Owned{CreatedUserID: 11}},
		3: {ID: 3, UserName: "cid", Owned: entity.Owned{CreatedUserID: 10}},
	}}

	list := query.NewService(
		query.NewExecutor[users.User](store),
		security.NewEvaluatorFor[users.User](true, nil),
		users.ExcludedFields...,
	)
	svc := users.NewService(store, list, noTx{}, audit.NewInterceptor(discard{}))

	ident := &security.Identity{UserID: 10, Roles: []security.Role{{ID: 1, DataScope: security.SelfOnly}}}

	r := gin.New()
	r.Use(middleware.ErrorHandler(), withIdentity(ident))
	h := NewUserHandler(NewBaseHandler(), svc)
	r.POST("/users/query", h.Query)
	r.POST("/users", h.Create)
	r.GET("/users/:id", h.Get)
	r.DELETE("/users/:id", h.Delete)
	r.POST("/users/export", h.Export)
	return r, store
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserHandler_Query(t *testing.T) {
	r, _ := newUserRouter(t)

	tests := []struct {
		name      string
		body      string
		wantTotal int64
		wantNames []string
	}{
		{name: "empty body uses defaults", body: "", wantTotal: 2, wantNames: []string{"ann", "cid"}},
		{name: "page size from body", body: `{"pageIndex":2,"pageItems":1,"isPage":true}`, wantTotal: 2, wantNames: []string{"cid"}},
		{
			name:      "table filter",
			body:      `{"filters":[{"field":"user_name","operator":"eq","value":"cid"}]}`,
			wantTotal: 1,
			wantNames: []string{"cid"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/users/query", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var page query.Page[users.User]
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
			assert.Equal(t, tt.wantTotal, page.TotalCount)

			names := make([]string, 0, len(page.Items))
			for _, u := range page.Items {
				names = append(names, u.UserName)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestUserHandler_GetAndDelete(t *testing.T) {
	r, store := newUserRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/users/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/users/2", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/users/1", "").Code)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/users/2", "").Code)
	assert.Contains(t, store.rows, int64(2))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/users/1", "").Code)
	assert.NotContains(t, store.rows, int64(1))
}

func TestUserHandler_Create(t *testing.T) {
	r, _ := newUserRouter(t)

	rec := do(r, http.MethodPost, "/users", `{"nickName":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/users", `{"userName":"dee","email":"dee@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":`)
}

func TestUserHandler_Export(t *testing.T) {
	r, _ := newUserRouter(t)

	rec := do(r, http.MethodPost, "/users/export", `{"pageItems":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "users.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "User Name", rows[0][1])
	assert.Equal(t, "ann", rows[1][1])
	assert.Equal(t, "cid", rows[2][1])
}
