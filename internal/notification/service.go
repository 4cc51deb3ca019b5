package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/pkg/apperror"
	"github.com/fkhayef/fellowship/pkg/metrics"
)

// Common errors
var (
	ErrNotificationNotFound = apperror.NotFound("Notification not found")
	ErrNotRecipient         = apperror.Forbidden("This notification belongs to another user")
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Store is the notification persistence the service needs
type Store interface {
	CreateForPost(ctx context.Context, actorID, postID uuid.UUID) (int, error)
	CreateForLike(ctx context.Context, actorID, postID uuid.UUID) (int, error)
	CreateForRole(ctx context.Context, actorID, groupID, memberID uuid.UUID, role string) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, params ListParams) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// Service records activity notifications and serves each user's inbox.
// Recording is best-effort: the action that triggered it has already
// succeeded, so failures are logged and counted instead of returned.
type Service struct {
	repo     Store
	authors  profile.Directory
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// NewService creates a new notification service. recorder may be nil.
func NewService(repo Store, authors profile.Directory, logger *slog.Logger, recorder *metrics.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, authors: authors, logger: logger, recorder: recorder}
}

// PostCreated notifies the author of whatever postID answers
func (s *Service) PostCreated(ctx context.Context, actorID, postID uuid.UUID) {
	_, err := s.repo.CreateForPost(ctx, actorID, postID)
	s.settle(ctx, "post", err, "post_id", postID)
}

// PostLiked notifies the author of postID
func (s *Service) PostLiked(ctx context.Context, actorID, postID uuid.UUID) {
	_, err := s.repo.CreateForLike(ctx, actorID, postID)
	s.settle(ctx, "like", err, "post_id", postID)
}

// RoleChanged notifies memberID of their new role in groupID
func (s *Service) RoleChanged(ctx context.Context, actorID, groupID, memberID uuid.UUID, role string) {
	_, err := s.repo.CreateForRole(ctx, actorID, groupID, memberID, role)
	s.settle(ctx, "role", err, "group_id", groupID, "member_id", memberID)
}

func (s *Service) settle(ctx context.Context, source string, err error, attrs ...any) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "notification not recorded", append(attrs, "source", source, "error", err)...)
	s.recorder.BookkeepingFailed("notification_" + source)
}

// List returns one page of userID's inbox, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResponse, error) {
	if params.Limit <= 0 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	notifications, total, err := s.repo.ListByRecipient(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ActorID
	}
	actors, err := s.authors.Authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{
		Notifications: make([]*NotificationResponse, len(notifications)),
		TotalCount:    total,
		UnreadCount:   unread,
	}
	for i, n := range notifications {
		actor, ok := actors[n.ActorID]
		if !ok {
			actor = profile.UnknownAuthor(n.ActorID)
		}
		resp.Notifications[i] = n.ToResponse(actor)
	}
	return resp, nil
}

// UnreadCount returns how many of userID's notifications are unread
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkAsRead marks one of userID's notifications as read
func (s *Service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all of userID's notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
