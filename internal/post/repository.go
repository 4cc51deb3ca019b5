package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fkhayef/fellowship/internal/database"
)

const postColumns = `p.id, p.topic_id, p.author_id, p.content, p.parent_id, p.created_at, p.updated_at, p.likes_count`

// Repository handles post data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new post repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListByTopic returns every post of a topic oldest-first, with IsLiked set
// for viewer. A nil viewer sees nothing as liked.
func (r *Repository) ListByTopic(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*Post, error) {
	query := `
		SELECT ` + postColumns + `,
		       EXISTS(
		           SELECT 1 FROM post_likes l
		           WHERE l.post_id = p.id AND l.user_id = $2::uuid
		       ) AS is_liked
		FROM posts p
		WHERE p.topic_id = $1
		ORDER BY p.created_at ASC, p.id ASC
	`

	var posts []*Post
	if err := r.db.SelectContext(ctx, &posts, query, topicID, viewer); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetByID retrieves a post by its ID, returning nil when absent
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	p := &Post{}
	err := r.db.GetContext(ctx, p, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// Create inserts a post. A top-level post bumps its topic's reply counter in
// the same transaction.
func (r *Repository) Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*Post, error) {
	p := &Post{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := database.EnsureProfile(ctx, tx, authorID); err != nil {
			return err
		}

		query := `
			INSERT INTO posts AS p (topic_id, author_id, content, parent_id)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + postColumns
		if err := tx.QueryRowxContext(ctx, query, req.TopicID, authorID, req.Content, req.ParentID).StructScan(p); err != nil {
			return err
		}

		if p.IsTopLevel() {
			_, err := tx.ExecContext(ctx,
				`UPDATE topics SET replies_count = replies_count + 1 WHERE id = $1`, p.TopicID)
			return err
		}
		return nil
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

// Update replaces a post's content
func (r *Repository) Update(ctx context.Context, id uuid.UUID, content string) (*Post, error) {
	query := `
		UPDATE posts AS p
		SET content = $2, updated_at = NOW()
		WHERE p.id = $1
		RETURNING ` + postColumns

	p := &Post{}
	if err := r.db.QueryRowxContext(ctx, query, id, content).StructScan(p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return p, nil
}

// Delete removes a post, its replies and every like on them. Deleting a
// top-level post decrements the topic's reply counter in the same transaction.
func (r *Repository) Delete(ctx context.Context, p *Post) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM post_likes
			WHERE post_id = $1 OR post_id IN (SELECT id FROM posts WHERE parent_id = $1)
		`, p.ID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE parent_id = $1`, p.ID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, p.ID)
		if err != nil {
			return err
		}
		if rows, err := result.RowsAffected(); err != nil {
			return err
		} else if rows == 0 {
			return ErrPostNotFound
		}

		if p.IsTopLevel() {
			_, err = tx.ExecContext(ctx,
				`UPDATE topics SET replies_count = GREATEST(replies_count - 1, 0) WHERE id = $1`, p.TopicID)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}
