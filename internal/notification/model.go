package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification tells a user that someone acted on their content or membership
type Notification struct {
	ID          uuid.UUID  `db:"id"`
	RecipientID uuid.UUID  `db:"recipient_id"`
	ActorID     uuid.UUID  `db:"actor_id"`
	Kind        Kind       `db:"kind"`
	EntityType  EntityType `db:"entity_type"`
	EntityID    uuid.UUID  `db:"entity_id"`
	Detail      *string    `db:"detail"`
	IsRead      bool       `db:"is_read"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Kind represents the type of notification
type Kind string

const (
	KindTopicReply  Kind = "TOPIC_REPLY"
	KindPostReply   Kind = "POST_REPLY"
	KindPostLiked   Kind = "POST_LIKED"
	KindRoleChanged Kind = "ROLE_CHANGED"
)

// EntityType names what EntityID points at, so clients can link to it
type EntityType string

const (
	EntityTopic EntityType = "TOPIC"
	EntityGroup EntityType = "GROUP"
)

// ListParams filters a recipient's inbox
type ListParams struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}
