package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tutorbook/internal/credit"
	"tutorbook/internal/schedule"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrSlotTaken         = errors.New("slot already taken")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrStatusConflict    = errors.New("booking status changed concurrently")
	ErrAlreadyCompleted  = errors.New("booking already completed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotCancellable    = errors.New("booking cannot be cancelled")
)

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (user_id, learner_id, student_name, date, hour, slot_number, package, session_type, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		RETURNING id, user_id, learner_id, student_name, date, hour, slot_number, package, session_type, status, idempotency_key, created_at, updated_at
	`

	var created Booking
	err := r.db.GetContext(ctx, &created, query,
		booking.UserID,
		booking.LearnerID,
		booking.StudentName,
		schedule.NormalizeDate(booking.Date),
		booking.Hour,
		booking.SlotNumber,
		booking.Package,
		booking.SessionType,
		booking.IdempotencyKey,
	)
	if err != nil {
		// The partial unique index on (date, hour, slot_number) for
		// non-cancelled rows turns a lost slot race into a conflict.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	query := `
		SELECT id, user_id, learner_id, student_name, date, hour, slot_number, package, session_type, status, idempotency_key, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

// GetByIdempotencyKey is scoped to the owner so one user's key can
// never replay another user's booking.
func (r *repository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*Booking, error) {
	query := `
		SELECT id, user_id, learner_id, student_name, date, hour, slot_number, package, session_type, status, idempotency_key, created_at, updated_at
		FROM bookings
		WHERE idempotency_key = $1 AND user_id = $2
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, key, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

// SetStatus flips the status only if the row still holds the expected
// prior status, so a concurrent transition loses cleanly.
func (r *repository) SetStatus(ctx context.Context, id int, from, to string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// Complete marks a booking completed, debits one session from the
// owner's balance and appends the ledger entry, all in one
// transaction. A second completion attempt fails before any write.
func (r *repository) Complete(ctx context.Context, id int) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var booking Booking
	err = tx.GetContext(ctx, &booking, `
		SELECT id, user_id, learner_id, student_name, date, hour, slot_number, package, session_type, status, idempotency_key, created_at, updated_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if !CanTransition(booking.Status, StatusCompleted) {
		return nil, ErrInvalidTransition
	}

	var balance int
	err = tx.QueryRowxContext(ctx, `
		SELECT available_sessions
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, booking.UserID).Scan(&balance)
	if err != nil {
		return nil, err
	}

	if balance < 1 {
		return nil, credit.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET available_sessions = $1
		WHERE id = $2
	`, balance-1, booking.UserID)
	if err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("Tutoring session on %s", booking.Date.Format(schedule.DateLayout))
	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_history (user_id, amount, entry_type, category, reason, booking_id)
		VALUES ($1, 1, 'debit', 'session', $2, $3)
	`, booking.UserID, reason, booking.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	booking.Status = StatusCompleted
	return &booking, nil
}

// Cancel soft-cancels. Credits are consumed on completion, not on
// booking, so cancellation never touches the balance.
func (r *repository) Cancel(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')
	`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotCancellable
	}

	return nil
}

func (r *repository) CancelActiveByDate(ctx context.Context, date time.Time, reason string) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE date = $1 AND status IN ('pending', 'confirmed')
	`, schedule.NormalizeDate(date))
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}

// ActiveSlotsByHour returns the occupied slot numbers per hour for a
// date. Every non-cancelled booking holds its slot.
func (r *repository) ActiveSlotsByHour(ctx context.Context, date time.Time) (map[int][]int, error) {
	rows := []struct {
		Hour       int `db:"hour"`
		SlotNumber int `db:"slot_number"`
	}{}

	err := r.db.SelectContext(ctx, &rows, `
		SELECT hour, slot_number
		FROM bookings
		WHERE date = $1 AND status <> 'cancelled'
		ORDER BY hour ASC, slot_number ASC
	`, schedule.NormalizeDate(date))
	if err != nil {
		return nil, err
	}

	slots := make(map[int][]int)
	for _, row := range rows {
		slots[row.Hour] = append(slots[row.Hour], row.SlotNumber)
	}

	return slots, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Booking, error) {
	query := `
		SELECT id, user_id, learner_id, student_name, date, hour, slot_number, package, session_type, status, idempotency_key, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY date DESC, hour DESC
	`

	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) ListByDate(ctx context.Context, date time.Time) ([]BookingWithUser, error) {
	query := `
		SELECT
			b.id,
			b.user_id,
			b.learner_id,
			b.student_name,
			b.date,
			b.hour,
			b.slot_number,
			b.package,
			b.session_type,
			b.status,
			b.idempotency_key,
			b.created_at,
			b.updated_at,
			u.name AS user_name,
			u.email AS user_email
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		WHERE b.date = $1
		ORDER BY b.hour ASC, b.slot_number ASC
	`

	var bookings []BookingWithUser
	err := r.db.SelectContext(ctx, &bookings, query, schedule.NormalizeDate(date))
	if err != nil {
		return nil, err
	}

	return bookings, nil
}
