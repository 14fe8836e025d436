package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence for profiles.
type Repository struct {
	db Querier
}

// NewRepository constructs a repository.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// RoleFor returns the role stored on the single profile row for userID.
func (r *Repository) RoleFor(ctx context.Context, userID string) (Role, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1::uuid`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleNone, ErrNotFound
		}
		return RoleNone, fmt.Errorf("profiles: role for %s: %w", userID, err)
	}
	return ParseRole(raw), nil
}

// List returns every profile ordered by id.
func (r *Repository) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, role, created_at, updated_at FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("profiles: list: %w", err)
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		var (
			p    Profile
			role string
		)
		if err := rows.Scan(&p.ID, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("profiles: scan: %w", err)
		}
		p.Role = ParseRole(role)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: list rows: %w", err)
	}
	return out, nil
}

// Create inserts the profile row for a freshly registered user.
func (r *Repository) Create(ctx context.Context, userID string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	_, err := r.db.Exec(ctx, `INSERT INTO profiles (id, role) VALUES ($1::uuid, $2) ON CONFLICT (id) DO NOTHING`, userID, string(role))
	if err != nil {
		return fmt.Errorf("profiles: create: %w", err)
	}
	return nil
}

// SetRole updates the role on an existing profile.
func (r *Repository) SetRole(ctx context.Context, userID string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET role = $2, updated_at = NOW() WHERE id = $1::uuid`, userID, string(role))
	if err != nil {
		return fmt.Errorf("profiles: set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
