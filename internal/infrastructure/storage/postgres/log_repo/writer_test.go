package log_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyadmin/pkg/logger"
)

func TestInsertQuery(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	sql, args, err := NewWriter(nil).insertQuery(logger.Entry{
		Time:      at,
		Level:     "ERROR",
		Category:  "worker",
		Message:   "purge failed",
		Exception: "db down",
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO sys_log (created_time,log_level,category,message,exception) "+
		"VALUES ($1,$2,$3,$4,$5)", sql)
	assert.Equal(t, []any{at, "ERROR", "worker", "purge failed", "db down"}, args)
}

func TestPurgeQuery(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err := NewWriter(nil).purgeQuery(cutoff).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM sys_log WHERE created_time < $1", sql)
	assert.Equal(t, []any{cutoff}, args)
}
