package postgres

// Package postgres provides the authoritative document store for user
// profiles and the audit trail, backed by PostgreSQL.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	obserrors "github.com/vrnd369/theubc-admin-api/internal/observability/errors"
)

// ProfileStore reads and creates user profile documents in the
// user_profiles table. It is the "server" side of the profile store;
// cache-tier reads are layered on by the redis adapter.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a ProfileStore on the given database handle.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get fetches the profile for id from the database.
// Returns an error classifiable as not-found when no row exists.
func (s *ProfileStore) Get(ctx context.Context, id string) (domainauth.UserProfile, error) {
	const q = `
		SELECT id, email, role, COALESCE(name, ''), is_active, auto_created, created_at
		FROM user_profiles
		WHERE id = $1`

	var p domainauth.UserProfile
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Email, &p.Role, &p.Name, &p.IsActive, &p.AutoCreated, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainauth.UserProfile{}, fmt.Errorf("profile %s: %w", id, obserrors.ErrNotFound)
		}
		return domainauth.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Create inserts a new profile document. It never overwrites: inserting an
// id that already exists surfaces as an already-exists error so callers can
// tolerate a concurrent first-sign-in creator.
func (s *ProfileStore) Create(ctx context.Context, p domainauth.UserProfile) error {
	const q = `
		INSERT INTO user_profiles (id, email, role, name, is_active, auto_created, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.Email, p.Role, p.Name, p.IsActive, p.AutoCreated, createdAt,
	)
	if err != nil {
		if obserrors.KindOf(err) == obserrors.KindAlreadyExists {
			return fmt.Errorf("profile %s: %w", p.ID, obserrors.ErrAlreadyExists)
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}
