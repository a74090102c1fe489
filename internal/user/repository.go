package user

import (
	"context"
	"database/sql"
	"errors"

	"tutorbook/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, role, package_type, available_sessions, created_at
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, package_type, available_sessions, created_at
		FROM users
		WHERE email = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, package_type, available_sessions, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	return db.Exists(ctx, r.db, query, email)
}

func (r *repository) AddLearner(ctx context.Context, userID int, name string) (*Learner, error) {
	query := `
		INSERT INTO learners (user_id, name)
		VALUES ($1, $2)
		RETURNING id, user_id, name, created_at
	`

	var learner Learner
	err := r.db.GetContext(ctx, &learner, query, userID, name)
	if err != nil {
		return nil, err
	}

	return &learner, nil
}

func (r *repository) ListLearners(ctx context.Context, userID int) ([]Learner, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM learners
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	var learners []Learner
	err := r.db.SelectContext(ctx, &learners, query, userID)
	if err != nil {
		return nil, err
	}

	return learners, nil
}
