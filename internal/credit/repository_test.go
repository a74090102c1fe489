package credit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryColumns = []string{
	"id", "user_id", "amount", "entry_type", "category", "reason",
	"admin_id", "booking_id", "idempotency_key", "created_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestAdjust_CreditRaisesBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	adminID := 1

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}).AddRow(2))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(12, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO credit_history`).
		WithArgs(10, 10, EntryCredit, CategoryPurchase, "10-session package", adminID, nil).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(1, 10, 10, EntryCredit, CategoryPurchase, "10-session package", adminID, nil, nil, time.Now()))
	mock.ExpectCommit()

	resp, err := repo.Adjust(context.Background(), 10, 10, EntryCredit, CategoryPurchase, "10-session package", &adminID, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Balance)
	assert.Equal(t, EntryCredit, resp.Entry.EntryType)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_DebitBelowZeroRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	adminID := 1

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Adjust(context.Background(), 10, 2, EntryDebit, CategoryManualAdjustment, "correction", &adminID, nil)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_DebitToZeroAllowed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	adminID := 1

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}).AddRow(2))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(0, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO credit_history`).
		WithArgs(10, 2, EntryDebit, CategoryManualAdjustment, "correction", adminID, nil).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(2, 10, 2, EntryDebit, CategoryManualAdjustment, "correction", adminID, nil, nil, time.Now()))
	mock.ExpectCommit()

	resp, err := repo.Adjust(context.Background(), 10, 2, EntryDebit, CategoryManualAdjustment, "correction", &adminID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Balance)
}

func TestAdjust_UnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}))
	mock.ExpectRollback()

	_, err := repo.Adjust(context.Background(), 99, 1, EntryCredit, CategoryPurchase, "", nil, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdjust_IdempotentReplayReturnsOriginalEntry(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	key := "6c0f4d8e-2a9b-4f1c-8d3e-5b7a9c1e2f30"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM credit_history\s+WHERE idempotency_key = \$1 AND user_id = \$2`).
		WithArgs(key, 10).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(7, 10, 5, EntryCredit, CategoryPurchase, "5-session package", 1, nil, key, time.Now()))
	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}).AddRow(8))
	mock.ExpectRollback()

	resp, err := repo.Adjust(context.Background(), 10, 5, EntryCredit, CategoryPurchase, "5-session package", nil, &key)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Entry.ID)
	assert.Equal(t, 8, resp.Balance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_ReplayLookupScopedToUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	key := "6c0f4d8e-2a9b-4f1c-8d3e-5b7a9c1e2f30"

	// The key belongs to another user, so the replay lookup misses and
	// the adjustment proceeds for the requested user.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM credit_history\s+WHERE idempotency_key = \$1 AND user_id = \$2`).
		WithArgs(key, 20).
		WillReturnRows(sqlmock.NewRows(entryColumns))
	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}).AddRow(0))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(5, 20).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO credit_history`).
		WithArgs(20, 5, EntryCredit, CategoryPurchase, "5-session package", nil, key).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(8, 20, 5, EntryCredit, CategoryPurchase, "5-session package", nil, nil, key, time.Now()))
	mock.ExpectCommit()

	resp, err := repo.Adjust(context.Background(), 20, 5, EntryCredit, CategoryPurchase, "5-session package", nil, &key)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Balance)
	assert.Equal(t, 8, resp.Entry.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHistory_DefaultsLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM credit_history`).
		WithArgs(10, 50, 0).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(2, 10, 1, EntryDebit, CategorySession, "Tutoring session on 2026-09-14", nil, 5, nil, time.Now()).
			AddRow(1, 10, 10, EntryCredit, CategoryPurchase, "10-session package", 1, nil, nil, time.Now()))

	entries, err := repo.GetHistory(context.Background(), 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, EntryDebit, entries[0].EntryType)
	assert.Equal(t, CategorySession, entries[0].Category)
}

func TestGetBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT available_sessions`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"available_sessions"}).AddRow(4))

	balance, err := repo.GetBalance(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 4, balance)
}
