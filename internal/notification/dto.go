package notification

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/profile"
)

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID         uuid.UUID      `json:"id"`
	Kind       Kind           `json:"kind"`
	Message    string         `json:"message"`
	IsRead     bool           `json:"isRead"`
	EntityType EntityType     `json:"entityType"`
	EntityID   uuid.UUID      `json:"entityId"`
	Actor      profile.Author `json:"actor"`
	CreatedAt  string         `json:"createdAt"`
}

// ListResponse is the body of GET /notifications
type ListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	TotalCount    int                     `json:"totalCount"`
	UnreadCount   int                     `json:"unreadCount"`
}

// UnreadCountResponse is the body of GET /notifications/unread-count
type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

// ReadResponse acknowledges a mark-as-read request
type ReadResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// ToResponse converts a Notification to a NotificationResponse
func (n *Notification) ToResponse(actor profile.Author) *NotificationResponse {
	return &NotificationResponse{
		ID:         n.ID,
		Kind:       n.Kind,
		Message:    n.message(actor.Name),
		IsRead:     n.IsRead,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Actor:      actor,
		CreatedAt:  n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func (n *Notification) message(actorName string) string {
	switch n.Kind {
	case KindTopicReply:
		return actorName + " replied to your topic"
	case KindPostReply:
		return actorName + " replied to your post"
	case KindPostLiked:
		return actorName + " liked your post"
	case KindRoleChanged:
		if n.Detail != nil {
			return actorName + " made you " + article(*n.Detail) + " " + *n.Detail + " of the group"
		}
		return actorName + " changed your role in the group"
	default:
		return actorName + " sent you a notification"
	}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}
