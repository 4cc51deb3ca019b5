package like

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fkhayef/fellowship/internal/database"
)

// Repository keeps the like ledger and the posts' likes_count in step
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new like repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create records a like and increments the post's counter in one transaction
func (r *Repository) Create(ctx context.Context, userID, postID uuid.UUID) (*Like, int, error) {
	l := &Like{}
	var likes int
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := database.EnsureProfile(ctx, tx, userID); err != nil {
			return err
		}

		query := `
			INSERT INTO post_likes (user_id, post_id)
			VALUES ($1, $2)
			RETURNING user_id, post_id, created_at
		`
		if err := tx.QueryRowxContext(ctx, query, userID, postID).StructScan(l); err != nil {
			return err
		}

		return tx.GetContext(ctx, &likes,
			`UPDATE posts SET likes_count = likes_count + 1 WHERE id = $1 RETURNING likes_count`, postID)
	})
	switch {
	case err == nil:
		return l, likes, nil
	case database.IsUniqueViolation(err):
		return nil, 0, ErrAlreadyLiked
	case database.IsForeignKeyViolation(err), errors.Is(err, sql.ErrNoRows):
		return nil, 0, ErrPostNotFound
	default:
		return nil, 0, fmt.Errorf("failed to like post: %w", err)
	}
}

// Delete removes a like and decrements the post's counter in one transaction
func (r *Repository) Delete(ctx context.Context, userID, postID uuid.UUID) (int, error) {
	var likes int
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrLikeNotFound
		}

		return tx.GetContext(ctx, &likes,
			`UPDATE posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1 RETURNING likes_count`, postID)
	})
	if err != nil {
		if errors.Is(err, ErrLikeNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to unlike post: %w", err)
	}
	return likes, nil
}
