package like

import (
	"time"

	"github.com/google/uuid"
)

// Like records that a user liked a post. At most one exists per (user, post).
type Like struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	PostID    uuid.UUID `db:"post_id" json:"postId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
