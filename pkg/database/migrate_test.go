package database

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationFS = fstest.MapFS{
	"001_slots.up.sql":   {Data: []byte("CREATE TABLE storefront_slots (session_id TEXT)")},
	"001_slots.down.sql": {Data: []byte("DROP TABLE storefront_slots")},
	"002_index.up.sql":   {Data: []byte("CREATE INDEX storefront_slots_updated ON storefront_slots (updated_at)")},
}

func expectBootstrap(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func expectApplied(mock pgxmock.PgxPoolIface, name string, applied bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	expectBootstrap(mock)
	expectApplied(mock, "001_slots.up.sql", true)
	expectApplied(mock, "002_index.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX storefront_slots_updated").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_index.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, migrationFS, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	expectBootstrap(mock)
	expectApplied(mock, "001_slots.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE storefront_slots").WillReturnError(errStr("syntax error at or near"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, migrationFS, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_slots.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingCandidates_OnlyUpFilesSorted(t *testing.T) {
	names, err := pendingCandidates(migrationFS)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_slots.up.sql", "002_index.up.sql"}, names)
}
