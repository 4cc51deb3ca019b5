package topic

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Topic represents a forum thread
type Topic struct {
	ID           uuid.UUID      `db:"id"`
	AuthorID     uuid.UUID      `db:"author_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Category     string         `db:"category"`
	Tags         pq.StringArray `db:"tags"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	ViewsCount   int            `db:"views_count"`
	RepliesCount int            `db:"replies_count"`
}

// ListParams filters and pages a topic listing
type ListParams struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}
