package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"easyadmin/internal/core/entity"
)

type mockOwned struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Note string `json:"note"`
	entity.Owned
}

func TestExtractDBColumns_EmbeddedOwned(t *testing.T) {
	cols := ExtractDBColumns[mockOwned]()

	assert.Equal(t, []string{
		"id", "name",
		"created_user_id", "created_user_name", "created_time", "updated_time", "org_id",
	}, cols)
}

func TestExtractDBColumns_NonStruct(t *testing.T) {
	assert.Nil(t, ExtractDBColumns[int]())
}

func TestStructToMap_EmbeddedOwned(t *testing.T) {
	now := time.Now().UTC()
	row := mockOwned{
		ID:   7,
		Name: "Test Name",
		Note: "not persisted",
		Owned: entity.Owned{
			CreatedUserID:   42,
			CreatedUserName: "admin",
			CreatedTime:     now,
			OrgID:           3,
		},
	}

	m := StructToMap(&row)

	assert.Equal(t, int64(7), m["id"])
	assert.Equal(t, "Test Name", m["name"])
	assert.Equal(t, int64(42), m["created_user_id"])
	assert.Equal(t, "admin", m["created_user_name"])
	assert.Equal(t, now, m["created_time"])
	assert.Equal(t, int64(3), m["org_id"])
	assert.NotContains(t, m, "note")
	assert.Len(t, m, 7)
}
