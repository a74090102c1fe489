package credit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient session balance")
	ErrUserNotFound        = errors.New("user not found")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Adjust applies a signed balance change and appends the matching
// ledger entry in one transaction. The user row is locked for the
// duration so concurrent adjustments serialize. A debit that would
// drive the balance negative rolls back with ErrInsufficientBalance.
func (r *Repository) Adjust(ctx context.Context, userID, amount int, entryType, category, reason string, adminID *int, idempotencyKey *string) (*AdjustResponse, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if idempotencyKey != nil {
		// Replay lookup is scoped to the target user so a key can never
		// surface another user's ledger entry.
		var existing Entry
		err := tx.GetContext(ctx, &existing,
			`SELECT id, user_id, amount, entry_type, category, reason, admin_id, booking_id, idempotency_key, created_at
			 FROM credit_history
			 WHERE idempotency_key = $1 AND user_id = $2`,
			*idempotencyKey, userID,
		)
		if err == nil {
			var balance int
			if err := tx.GetContext(ctx, &balance, `SELECT available_sessions FROM users WHERE id = $1`, userID); err != nil {
				return nil, err
			}
			return &AdjustResponse{Balance: balance, Entry: &existing}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	var balance int
	err = tx.QueryRowxContext(ctx,
		`SELECT available_sessions
		 FROM users
		 WHERE id = $1
		 FOR UPDATE`,
		userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	delta := amount
	if entryType == EntryDebit {
		delta = -amount
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET available_sessions = $1
		 WHERE id = $2`,
		newBalance, userID,
	)
	if err != nil {
		return nil, err
	}

	var entry Entry
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO credit_history (user_id, amount, entry_type, category, reason, admin_id, idempotency_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, amount, entry_type, category, reason, admin_id, booking_id, idempotency_key, created_at`,
		userID, amount, entryType, category, reason, adminID, idempotencyKey,
	).StructScan(&entry)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &AdjustResponse{Balance: newBalance, Entry: &entry}, nil
}

func (r *Repository) GetHistory(ctx context.Context, userID int, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, amount, entry_type, category, reason, admin_id, booking_id, idempotency_key, created_at
		FROM credit_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repository) GetBalance(ctx context.Context, userID int) (int, error) {
	var balance int
	err := r.db.GetContext(ctx, &balance, `SELECT available_sessions FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	return balance, nil
}
