package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fkhayef/fellowship/internal/database"
)

const (
	groupColumns  = `g.id, g.name, g.description, g.category, g.schedule, g.created_by, g.created_at, g.updated_at, g.is_active`
	memberColumns = `m.group_id, m.user_id, m.role, m.joined_at`

	// summaryColumns expects the viewer's id as $1
	summaryColumns = groupColumns + `,
		(SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id) AS members_count,
		EXISTS(SELECT 1 FROM group_members j WHERE j.group_id = g.id AND j.user_id = $1::uuid) AS is_joined`
)

// Repository handles group data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a group and makes its creator an admin in the same transaction
func (r *Repository) Create(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*Group, error) {
	g := &Group{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := database.EnsureProfile(ctx, tx, creatorID); err != nil {
			return err
		}

		query := `
			INSERT INTO groups AS g (name, description, category, schedule, created_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + groupColumns
		err := tx.QueryRowxContext(ctx, query, req.Name, req.Description, req.Category, req.Schedule, creatorID).StructScan(g)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
			g.ID, creatorID, RoleAdmin)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return g, nil
}

// GetSummary retrieves an active group annotated for viewer, returning nil when absent
func (r *Repository) GetSummary(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*Summary, error) {
	s := &Summary{}
	query := `SELECT ` + summaryColumns + ` FROM groups g WHERE g.id = $2 AND g.is_active`
	if err := r.db.GetContext(ctx, s, query, viewer, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return s, nil
}

// List returns active groups newest-first along with the total match count
func (r *Repository) List(ctx context.Context, params ListParams, viewer *uuid.UUID) ([]*Summary, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM groups WHERE is_active AND ($1 = '' OR category = $1)`
	if err := r.db.GetContext(ctx, &total, countQuery, params.Category); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + summaryColumns + `
		FROM groups g
		WHERE g.is_active AND ($2 = '' OR g.category = $2)
		ORDER BY g.created_at DESC
		LIMIT $3 OFFSET $4
	`
	var groups []*Summary
	if err := r.db.SelectContext(ctx, &groups, query, viewer, params.Category, params.Limit, params.Offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, total, nil
}

// Update modifies the fields present in req. An empty schedule clears it.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *UpdateGroupRequest) error {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    category = COALESCE($4, category),
		    schedule = NULLIF(COALESCE($5, schedule), ''),
		    updated_at = NOW()
		WHERE id = $1 AND is_active
	`
	result, err := r.db.ExecContext(ctx, query, id, req.Name, req.Description, req.Category, req.Schedule)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

// Deactivate soft-deletes a group
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE groups SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

// GetMember retrieves a membership, returning nil when absent
func (r *Repository) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*Member, error) {
	m := &Member{}
	query := `SELECT ` + memberColumns + ` FROM group_members m WHERE m.group_id = $1 AND m.user_id = $2`
	if err := r.db.GetContext(ctx, m, query, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers returns a group's members, owners and admins first
func (r *Repository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members m
		WHERE m.group_id = $1
		ORDER BY CASE m.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, m.joined_at ASC
	`
	var members []*Member
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return members, nil
}

// AddMember inserts a membership
func (r *Repository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role Role) (*Member, error) {
	m := &Member{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := database.EnsureProfile(ctx, tx, userID); err != nil {
			return err
		}
		query := `
			INSERT INTO group_members AS m (group_id, user_id, role)
			VALUES ($1, $2, $3)
			RETURNING ` + memberColumns
		return tx.QueryRowxContext(ctx, query, groupID, userID, role).StructScan(m)
	})
	switch {
	case err == nil:
		return m, nil
	case database.IsUniqueViolation(err):
		return nil, ErrAlreadyMember
	case database.IsForeignKeyViolation(err):
		return nil, ErrGroupNotFound
	default:
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
}

// RemoveMember deletes a membership
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return requireRow(result, ErrNotMember)
}

// RemoveLastMember deletes the final membership and deactivates the group in one transaction
func (r *Repository) RemoveLastMember(ctx context.Context, groupID, userID uuid.UUID) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
		if err != nil {
			return err
		}
		if err := requireRow(result, ErrNotMember); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE groups SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, groupID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return err
		}
		return fmt.Errorf("failed to close group: %w", err)
	}
	return nil
}

// CountMembers counts a group's memberships, optionally restricted to roles
func (r *Repository) CountMembers(ctx context.Context, groupID uuid.UUID, roles ...Role) (int, error) {
	filter := make(pq.StringArray, len(roles))
	for i, role := range roles {
		filter[i] = string(role)
	}

	var count int
	query := `
		SELECT COUNT(*) FROM group_members
		WHERE group_id = $1 AND (cardinality($2::text[]) = 0 OR role = ANY($2::text[]))
	`
	if err := r.db.GetContext(ctx, &count, query, groupID, filter); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// SetRole changes a member's role
func (r *Repository) SetRole(ctx context.Context, groupID, userID uuid.UUID, role Role) (*Member, error) {
	m := &Member{}
	query := `
		UPDATE group_members AS m SET role = $3
		WHERE m.group_id = $1 AND m.user_id = $2
		RETURNING ` + memberColumns
	if err := r.db.QueryRowxContext(ctx, query, groupID, userID, role).StructScan(m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return m, nil
}

// Transfer makes to an owner and, when demote is set, turns from into an admin
func (r *Repository) Transfer(ctx context.Context, groupID, from, to uuid.UUID, demote bool) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE group_members SET role = $3 WHERE group_id = $1 AND user_id = $2`, groupID, to, RoleOwner)
		if err != nil {
			return err
		}
		if err := requireRow(result, ErrMemberNotFound); err != nil {
			return err
		}
		if demote {
			_, err = tx.ExecContext(ctx,
				`UPDATE group_members SET role = $3 WHERE group_id = $1 AND user_id = $2`, groupID, from, RoleAdmin)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return err
		}
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
