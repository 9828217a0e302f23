package query_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyadmin/internal/core/entity"
	"easyadmin/internal/domain/users"
)

func TestUserRepo_UpdateKeepsCreator(t *testing.T) {
	repo := NewUserRepo(nil)

	q, err := repo.updateQuery(7, users.User{
		UserName: "ann",
		Status:   users.StatusActive,
		Owned:    entity.Owned{CreatedUserID: 3, CreatedUserName: "root", OrgID: 2},
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE sys_user SET email = $1, nick_name = $2, org_id = $3, phone = $4, "+
		"status = $5, updated_time = $6, user_name = $7 WHERE id = $8", sql)
	assert.Len(t, args, 8)
	assert.Equal(t, int64(7), args[7])
}

func TestUserRepo_FiltersOnOwnedColumns(t *testing.T) {
	repo := NewUserRepo(nil)

	for _, col := range []string{"created_user_id", "org_id", "user_name"} {
		_, ok := repo.allowed[col]
		assert.True(t, ok, col)
	}
	_, ok := repo.allowed["password_hash"]
	assert.False(t, ok)
}
