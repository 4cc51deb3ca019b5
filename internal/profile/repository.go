package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fkhayef/fellowship/internal/database"
)

const profileColumns = `id, display_name, avatar_url, created_at, updated_at`

// Repository handles profile data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new profile repository with database dependency injected
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a profile by user ID, returning nil when absent
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p := &Profile{}
	err := r.db.GetContext(ctx, p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetMany retrieves the profiles that exist among ids
func (r *Repository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var profiles []*Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &profiles, query, database.UUIDArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

// Ensure returns the profile for id, creating an empty one on first sign-in
func (r *Repository) Ensure(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if err := database.EnsureProfile(ctx, r.db, id); err != nil {
		return nil, err
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s missing after insert", id)
	}
	return p, nil
}

// Update modifies the display fields of an existing profile
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	query := `
		UPDATE profiles
		SET display_name = COALESCE($2, display_name),
		    avatar_url = COALESCE($3, avatar_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	p := &Profile{}
	err := r.db.QueryRowxContext(ctx, query, id, req.DisplayName, req.AvatarURL).StructScan(p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}
