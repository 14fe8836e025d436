package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surveyhub/surveyhub/internal/platform/db"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

const uniqueViolation = "23505"

// NewAccount describes a user to register.
type NewAccount struct {
	Email        string
	PasswordHash string
	Role         profiles.Role
	Confirmed    bool
}

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, account NewAccount) (*User, error)
	ConfirmUser(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT id::text, email, password_hash, confirmed_at, created_at, updated_at FROM users WHERE email = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, normalizeEmail(email)).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.ConfirmedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts the user and its profile in one transaction.
func (r *PGRepository) CreateUser(ctx context.Context, account NewAccount) (*User, error) {
	role := account.Role
	if !role.Valid() {
		role = profiles.RoleUser
	}
	var confirmedAt *time.Time
	if account.Confirmed {
		now := time.Now().UTC()
		confirmedAt = &now
	}
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `INSERT INTO users (email, password_hash, confirmed_at) VALUES ($1, $2, $3)
RETURNING id::text, email, password_hash, confirmed_at, created_at, updated_at`
		err := tx.QueryRow(ctx, insert, normalizeEmail(account.Email), account.PasswordHash, confirmedAt).Scan(
			&user.ID, &user.Email, &user.PasswordHash, &user.ConfirmedAt, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrEmailTaken
			}
			return fmt.Errorf("auth: insert user: %w", err)
		}
		return profiles.NewRepository(tx).Create(ctx, user.ID, role)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ConfirmUser stamps the confirmation time once.
func (r *PGRepository) ConfirmUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET confirmed_at = COALESCE(confirmed_at, NOW()), updated_at = NOW() WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("auth: confirm user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Repository = (*PGRepository)(nil)
