package query_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/domain/filter"
	"easyadmin/internal/domain/query"
)

type testRow struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Email  string `db:"email"`
	Status int    `db:"status"`
	OrgID  int64  `db:"org_id"`
}

func newTestRepo() *BaseRepo[testRow] {
	return NewBaseRepo[testRow](nil, "test_table")
}

func TestSelectQuery_Operators(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name     string
		where    filter.Condition
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "always true adds no where",
			where:    filter.True(),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table ORDER BY id ASC",
			wantArgs: nil,
		},
		{
			name:     "always false",
			where:    filter.False(),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE (1=0) ORDER BY id ASC",
			wantArgs: nil,
		},
		{
			name:     "greater",
			where:    filter.Leaf("status", filter.GreaterThan, 10),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE status > $1 ORDER BY id ASC",
			wantArgs: []any{10},
		},
		{
			name:     "less or equal",
			where:    filter.Leaf("status", filter.LessOrEqual, 5),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE status <= $1 ORDER BY id ASC",
			wantArgs: []any{5},
		},
		{
			name:     "contains escapes wildcards",
			where:    filter.Leaf("name", filter.Contains, "50%_off"),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE name::text ILIKE $1 ORDER BY id ASC",
			wantArgs: []any{`%50\%\_off%`},
		},
		{
			name:     "not contains",
			where:    filter.Leaf("name", filter.NotContains, "bot"),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE name::text NOT ILIKE $1 ORDER BY id ASC",
			wantArgs: []any{"%bot%"},
		},
		{
			name:     "contains on a numeric column",
			where:    filter.Leaf("status", filter.Contains, 1),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE status::text ILIKE $1 ORDER BY id ASC",
			wantArgs: []any{"%1%"},
		},
		{
			name:     "in list",
			where:    filter.Leaf("org_id", filter.InList, []int64{1, 2, 3}),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE org_id IN ($1,$2,$3) ORDER BY id ASC",
			wantArgs: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:     "is null",
			where:    filter.Leaf("email", filter.IsNull, nil),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE email IS NULL ORDER BY id ASC",
			wantArgs: nil,
		},
		{
			name: "free text group and permission",
			where: filter.AllOf(
				filter.AnyOf(
					filter.Leaf("name", filter.Contains, "ann"),
					filter.Leaf("email", filter.Contains, "ann"),
				),
				filter.Leaf("org_id", filter.InList, []int64{7}),
			),
			wantSQL:  "SELECT id, name, email, status, org_id FROM test_table WHERE ((name::text ILIKE $1 OR email::text ILIKE $2) AND org_id IN ($3)) ORDER BY id ASC",
			wantArgs: []any{"%ann%", "%ann%", int64(7)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.selectQuery(query.Spec{
				Where:   tt.where,
				OrderBy: []query.Sort{{Field: "id", Order: query.Asc}},
			})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestSelectQuery_OrderAndPaging(t *testing.T) {
	q, err := newTestRepo().selectQuery(query.Spec{
		Where:   filter.True(),
		OrderBy: []query.Sort{{Field: "name", Order: query.Desc}, {Field: "id"}},
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, email, status, org_id FROM test_table ORDER BY name DESC, id ASC LIMIT 10 OFFSET 20", sql)
}

func TestCountQuery(t *testing.T) {
	q, err := newTestRepo().countQuery(filter.Leaf("status", filter.Equal, 1))
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM test_table WHERE status = $1", sql)
	assert.Equal(t, []any{1}, args)
}

func TestRender_RejectsUnknownColumns(t *testing.T) {
	repo := newTestRepo()

	_, err := repo.selectQuery(query.Spec{
		Where:   filter.AnyOf(filter.Leaf("name", filter.Equal, "x"), filter.Leaf("password; --", filter.Equal, "x")),
		OrderBy: []query.Sort{{Field: "id"}},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidFilter, appErr.Code)

	_, err = repo.selectQuery(query.Spec{
		Where:   filter.True(),
		OrderBy: []query.Sort{{Field: "name desc; drop table x"}},
	})
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidSort, appErr.Code)
}

func TestUpdateQuery_SkipsImmutableColumns(t *testing.T) {
	repo := NewBaseRepo[testRow](nil, "test_table", "org_id")

	q, err := repo.updateQuery(5, testRow{ID: 99, Name: "n", Email: "e", Status: 1, OrgID: 3})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	// SetMap sorts columns by name.
	assert.Equal(t, "UPDATE test_table SET email = $1, name = $2, status = $3 WHERE id = $4", sql)
	assert.Equal(t, []any{"e", "n", 1, int64(5)}, args)
}

func TestInsertQuery_ReturnsID(t *testing.T) {
	q, err := newTestRepo().insertQuery(testRow{ID: 99, Name: "n", Email: "e", Status: 1, OrgID: 3})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO test_table (email,name,org_id,status) VALUES ($1,$2,$3,$4) RETURNING id", sql)
	assert.Equal(t, []any{"e", "n", int64(3), 1}, args)
}
