package booking_test

import (
	"context"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/credit"
)

func TestCreditAdjust_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := credit.NewRepository(db)
	ctx := context.Background()

	adminID := createTestUser(t, db, "admin@test.com", "Admin User")
	userID := createTestUser(t, db, "credits@test.com", "Credit User")

	resp, err := repo.Adjust(ctx, userID, 10, credit.EntryCredit, credit.CategoryPurchase, "10-session package", &adminID, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Balance)

	resp, err = repo.Adjust(ctx, userID, 3, credit.EntryDebit, credit.CategoryManualAdjustment, "correction", &adminID, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Balance)

	// Overdebit rolls back, balance and ledger stay untouched
	_, err = repo.Adjust(ctx, userID, 8, credit.EntryDebit, credit.CategoryManualAdjustment, "too much", &adminID, nil)
	assert.ErrorIs(t, err, credit.ErrInsufficientBalance)

	balance, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, balance)

	history, err := repo.GetHistory(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCreditAdjust_Idempotency_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := credit.NewRepository(db)
	ctx := context.Background()

	adminID := createTestUser(t, db, "admin2@test.com", "Admin User")
	userID := createTestUser(t, db, "idem@test.com", "Idem User")

	key := "0b9f3c2e-4d8a-4b6e-9c1d-7e5a2f8b4c60"

	first, err := repo.Adjust(ctx, userID, 5, credit.EntryCredit, credit.CategoryPurchase, "5-session package", &adminID, &key)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Balance)

	// Replaying the same key must not credit twice
	second, err := repo.Adjust(ctx, userID, 5, credit.EntryCredit, credit.CategoryPurchase, "5-session package", &adminID, &key)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Balance)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)

	history, err := repo.GetHistory(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
