package like

import (
	"context"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/apperror"
)

// Common errors
var (
	ErrPostRequired = apperror.Validation("postId is required")
	ErrAlreadyLiked = apperror.Conflict("You have already liked this post")
	ErrPostNotFound = apperror.NotFound("Post not found")
	ErrLikeNotFound = apperror.NotFound("You have not liked this post")
)

// Store is the like ledger the service needs. Both calls return the post's
// likes_count after the change.
type Store interface {
	Create(ctx context.Context, userID, postID uuid.UUID) (*Like, int, error)
	Delete(ctx context.Context, userID, postID uuid.UUID) (int, error)
}

// Activity is told about new likes so post authors can be notified
type Activity interface {
	PostLiked(ctx context.Context, actorID, postID uuid.UUID)
}

// Service handles like business logic
type Service struct {
	repo     Store
	activity Activity
}

// NewService creates a new like service. activity may be nil.
func NewService(repo Store, activity Activity) *Service {
	return &Service{repo: repo, activity: activity}
}

// Like records that userID likes postID. Liking twice is a conflict.
func (s *Service) Like(ctx context.Context, userID, postID uuid.UUID) (*LikeResponse, error) {
	if postID == uuid.Nil {
		return nil, ErrPostRequired
	}

	l, likes, err := s.repo.Create(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.PostLiked(ctx, userID, postID)
	}
	return &LikeResponse{Success: true, Like: l, Likes: likes}, nil
}

// Unlike removes userID's like of postID. Removing a like that does not exist is NotFound.
func (s *Service) Unlike(ctx context.Context, userID, postID uuid.UUID) (*UnlikeResponse, error) {
	if postID == uuid.Nil {
		return nil, ErrPostRequired
	}

	likes, err := s.repo.Delete(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return &UnlikeResponse{Success: true, Likes: likes}, nil
}
