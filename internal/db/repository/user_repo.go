package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is an account row. Email and PasswordHash are nil for guests and
// OAuth-only accounts.
type User struct {
	ID           uuid.UUID
	Email        *string
	PasswordHash *string
	DisplayName  string
	UserType     string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// UserRepository exposes the account operations used by auth flows.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a UserRepository on the shared pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts an account and fills in the generated id and timestamp.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, display_name, user_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING user_id, created_at`,
		u.Email, u.PasswordHash, u.DisplayName, u.UserType,
	).Scan(&u.ID, &u.CreatedAt)
}

// GetByID fetches one account by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.get(ctx,
		`SELECT user_id, email, password_hash, display_name, user_type, created_at, last_login_at
		 FROM users WHERE user_id = $1`, id)
}

// GetByEmail fetches one account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx,
		`SELECT user_id, email, password_hash, display_name, user_type, created_at, last_login_at
		 FROM users WHERE email = $1`, email)
}

// PromoteGuest upgrades a guest row to a registered account in one statement.
func (r *UserRepository) PromoteGuest(ctx context.Context, id uuid.UUID, email, passwordHash string) (*User, error) {
	u := &User{}
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET email = $2, password_hash = $3, user_type = 'registered'
		 WHERE user_id = $1 AND user_type = 'guest'
		 RETURNING user_id, email, password_hash, display_name, user_type, created_at, last_login_at`,
		id, email, passwordHash,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.UserType, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateLogin stamps the last login time.
func (r *UserRepository) UpdateLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = NOW() WHERE user_id = $1`, id)
	return err
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*User, error) {
	u := &User{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.UserType, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
