package topic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fkhayef/fellowship/internal/database"
)

const topicColumns = `id, author_id, title, description, category, tags, created_at, updated_at, views_count, replies_count`

// listFilter matches on category and on title, description or an exact lower-cased tag
const listFilter = `
	WHERE ($1 = '' OR category = $1)
	  AND ($2 = '' OR title ILIKE $3 OR description ILIKE $3 OR lower($2) = ANY(tags))
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository handles topic data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new topic repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a topic, creating the author's profile row if needed
func (r *Repository) Create(ctx context.Context, authorID uuid.UUID, req *CreateTopicRequest) (*Topic, error) {
	t := &Topic{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := database.EnsureProfile(ctx, tx, authorID); err != nil {
			return err
		}

		query := `
			INSERT INTO topics (author_id, title, description, category, tags)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + topicColumns
		return tx.QueryRowxContext(ctx, query,
			authorID, req.Title, req.Description, req.Category, pq.StringArray(req.Tags),
		).StructScan(t)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	return t, nil
}

// GetByID retrieves a topic by its ID, returning nil when absent
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Topic, error) {
	t := &Topic{}
	err := r.db.GetContext(ctx, t, `SELECT `+topicColumns+` FROM topics WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return t, nil
}

// Exists reports whether a topic with id exists
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM topics WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check topic: %w", err)
	}
	return exists, nil
}

// List returns a page of topics newest-first along with the total match count
func (r *Repository) List(ctx context.Context, params ListParams) ([]*Topic, int, error) {
	search := strings.TrimSpace(params.Search)
	pattern := "%" + likeEscaper.Replace(search) + "%"

	var total int
	countQuery := `SELECT COUNT(*) FROM topics` + listFilter
	if err := r.db.GetContext(ctx, &total, countQuery, params.Category, search, pattern); err != nil {
		return nil, 0, fmt.Errorf("failed to count topics: %w", err)
	}

	var topics []*Topic
	query := `SELECT ` + topicColumns + ` FROM topics` + listFilter + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	err := r.db.SelectContext(ctx, &topics, query, params.Category, search, pattern, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list topics: %w", err)
	}

	return topics, total, nil
}

// CountReplies counts top-level posts per topic. Topics without posts are absent from the map.
func (r *Repository) CountReplies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		TopicID uuid.UUID `db:"topic_id"`
		Count   int       `db:"count"`
	}
	query := `
		SELECT topic_id, COUNT(*) AS count
		FROM posts
		WHERE parent_id IS NULL AND topic_id = ANY($1::uuid[])
		GROUP BY topic_id
	`
	if err := r.db.SelectContext(ctx, &rows, query, database.UUIDArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}

	for _, row := range rows {
		counts[row.TopicID] = row.Count
	}
	return counts, nil
}

// IncrementViews bumps the view counter and returns the new value
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	var views int
	query := `UPDATE topics SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count`
	if err := r.db.GetContext(ctx, &views, query, id); err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

// Update modifies the fields present in req
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *UpdateTopicRequest) (*Topic, error) {
	var tags pq.StringArray
	if req.Tags != nil {
		tags = pq.StringArray(req.Tags)
	}

	query := `
		UPDATE topics
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    category = COALESCE($4, category),
		    tags = COALESCE($5::text[], tags),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + topicColumns

	t := &Topic{}
	err := r.db.QueryRowxContext(ctx, query, id, req.Title, req.Description, req.Category, tags).StructScan(t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}
	return t, nil
}

// Delete removes a topic. Its posts and their likes go with it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTopicNotFound
	}
	return nil
}
