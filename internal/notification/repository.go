package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, recipient_id, actor_id, kind, entity_type, entity_id, detail, is_read, created_at`

// Repository handles notification data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateForPost notifies whoever the new post answers: the parent post's
// author for a reply, the topic author otherwise. Nothing is written when the
// actor answered themselves. Returns the number of notifications written.
func (r *Repository) CreateForPost(ctx context.Context, actorID, postID uuid.UUID) (int, error) {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, kind, entity_type, entity_id)
		SELECT COALESCE(parent.author_id, t.author_id), $1::uuid,
		       CASE WHEN p.parent_id IS NULL THEN $3::text ELSE $4::text END,
		       $5::text, p.topic_id
		FROM posts p
		JOIN topics t ON t.id = p.topic_id
		LEFT JOIN posts parent ON parent.id = p.parent_id
		WHERE p.id = $2 AND COALESCE(parent.author_id, t.author_id) <> $1::uuid
	`
	return r.exec(ctx, "failed to notify post", query, actorID, postID, KindTopicReply, KindPostReply, EntityTopic)
}

// CreateForLike notifies a post's author that actorID liked it
func (r *Repository) CreateForLike(ctx context.Context, actorID, postID uuid.UUID) (int, error) {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, kind, entity_type, entity_id)
		SELECT p.author_id, $1::uuid, $3::text, $4::text, p.topic_id
		FROM posts p
		WHERE p.id = $2 AND p.author_id <> $1::uuid
	`
	return r.exec(ctx, "failed to notify like", query, actorID, postID, KindPostLiked, EntityTopic)
}

// CreateForRole notifies a member that actorID changed their role in a group
func (r *Repository) CreateForRole(ctx context.Context, actorID, groupID, memberID uuid.UUID, role string) (int, error) {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, kind, entity_type, entity_id, detail)
		SELECT $3::uuid, $1::uuid, $4::text, $5::text, $2::uuid, $6::text
		WHERE $3::uuid <> $1::uuid
	`
	return r.exec(ctx, "failed to notify role change", query, actorID, groupID, memberID, KindRoleChanged, EntityGroup, role)
}

func (r *Repository) exec(ctx context.Context, failure, query string, args ...interface{}) (int, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", failure, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", failure, err)
	}
	return int(n), nil
}

// GetByID retrieves a notification by its ID, returning nil when absent
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n := &Notification{}
	err := r.db.GetContext(ctx, n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListByRecipient returns one page of a user's notifications, newest first,
// with the total matching count
func (r *Repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, params ListParams) ([]*Notification, int, error) {
	filter := ` WHERE recipient_id = $1 AND (NOT $2 OR is_read = false)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+filter, recipientID, params.UnreadOnly); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications` + filter +
		` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`

	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, params.UnreadOnly, params.Limit, params.Offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkAsRead marks a notification as read
func (r *Repository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks every unread notification of a user as read
func (r *Repository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query := `UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`
	return r.exec(ctx, "failed to mark all notifications as read", query, recipientID)
}

// UnreadCount returns the number of unread notifications of a user
func (r *Repository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
