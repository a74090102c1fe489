package schedule

import (
	"context"
	"errors"
	"time"

	"tutorbook/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrCustomSessionNotFound = errors.New("custom session not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IsDateBlocked(ctx context.Context, date time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blocked_dates WHERE date = $1)`
	return db.Exists(ctx, r.db, query, NormalizeDate(date))
}

func (r *repository) BlockDate(ctx context.Context, date time.Time, reason string) (*BlockedDate, error) {
	query := `
		INSERT INTO blocked_dates (date, reason)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET reason = EXCLUDED.reason, updated_at = NOW()
		RETURNING id, date, reason, created_at, updated_at
	`

	var blocked BlockedDate
	err := r.db.GetContext(ctx, &blocked, query, NormalizeDate(date), reason)
	if err != nil {
		return nil, err
	}

	return &blocked, nil
}

func (r *repository) UnblockDate(ctx context.Context, date time.Time) error {
	// Unblocking a date that is not blocked is a no-op success.
	_, err := r.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE date = $1`, NormalizeDate(date))
	return err
}

func (r *repository) ListBlockedDates(ctx context.Context) ([]BlockedDate, error) {
	query := `
		SELECT id, date, reason, created_at, updated_at
		FROM blocked_dates
		ORDER BY date ASC
	`

	var dates []BlockedDate
	err := r.db.SelectContext(ctx, &dates, query)
	if err != nil {
		return nil, err
	}

	return dates, nil
}

func (r *repository) CreateCustomSession(ctx context.Context, date time.Time, startHour, endHour, maxSlots int, reason string) (*CustomSession, error) {
	query := `
		INSERT INTO custom_sessions (date, start_hour, end_hour, max_slots, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, date, start_hour, end_hour, max_slots, reason, created_at
	`

	var session CustomSession
	err := r.db.GetContext(ctx, &session, query, NormalizeDate(date), startHour, endHour, maxSlots, reason)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *repository) DeleteCustomSession(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM custom_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrCustomSessionNotFound
	}

	return nil
}

func (r *repository) ListCustomSessions(ctx context.Context) ([]CustomSession, error) {
	query := `
		SELECT id, date, start_hour, end_hour, max_slots, reason, created_at
		FROM custom_sessions
		ORDER BY date ASC, start_hour ASC
	`

	var sessions []CustomSession
	err := r.db.SelectContext(ctx, &sessions, query)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) GetCustomSessionsForDate(ctx context.Context, date time.Time) ([]CustomSession, error) {
	query := `
		SELECT id, date, start_hour, end_hour, max_slots, reason, created_at
		FROM custom_sessions
		WHERE date = $1
		ORDER BY start_hour ASC
	`

	var sessions []CustomSession
	err := r.db.SelectContext(ctx, &sessions, query, NormalizeDate(date))
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
