package dbmetrics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	operations []string
	errs       []error
}

func (f *fakeCollector) ObserveDBQuery(operation string, _ time.Duration, err error) {
	f.operations = append(f.operations, operation)
	f.errs = append(f.errs, err)
}

func (f *fakeCollector) SetDBPoolStats(sql.DBStats) {}

func TestOperation(t *testing.T) {
	assert.Equal(t, "select", Operation("SELECT id FROM appointments"))
	assert.Equal(t, "insert", Operation("\n  INSERT INTO patients (full_name) VALUES ($1)"))
	assert.Equal(t, "unknown", Operation("   "))
}

func TestDB_ObservesQueriesInsideTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	collector := &fakeCollector{}
	wrapped := Wrap(db, collector)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := wrapped.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	ctx := WithTx(context.Background(), tx)
	assert.True(t, IsInTransaction(ctx))

	_, err = GetExecutor(ctx, wrapped).ExecContext(ctx, "UPDATE appointments SET status = $1", "confirmed")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"update"}, collector.operations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_WithoutTx(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	wrapped := Wrap(db, nil)
	assert.Same(t, wrapped, GetExecutor(context.Background(), wrapped))
	assert.False(t, IsInTransaction(context.Background()))
}
