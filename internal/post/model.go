package post

import (
	"time"

	"github.com/google/uuid"
)

// Post is a reply within a topic. A non-nil ParentID makes it a reply to a
// top-level post; nesting never goes deeper than that.
type Post struct {
	ID         uuid.UUID  `db:"id"`
	TopicID    uuid.UUID  `db:"topic_id"`
	AuthorID   uuid.UUID  `db:"author_id"`
	Content    string     `db:"content"`
	ParentID   *uuid.UUID `db:"parent_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	LikesCount int        `db:"likes_count"`

	// Populated from the caller's like join
	IsLiked bool `db:"is_liked"`
}

// IsTopLevel reports whether p replies directly to its topic
func (p *Post) IsTopLevel() bool {
	return p.ParentID == nil
}
