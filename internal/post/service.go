package post

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/pkg/apperror"
)

// Common errors
var (
	ErrPostNotFound    = apperror.NotFound("Post not found")
	ErrTopicNotFound   = apperror.NotFound("Topic not found")
	ErrParentNotFound  = apperror.NotFound("The post you are replying to no longer exists")
	ErrParentMismatch  = apperror.Validation("The post you are replying to belongs to another topic")
	ErrContentRequired = apperror.Validation("Content is required")
	ErrTopicRequired   = apperror.Validation("topicId is required")
	ErrNotAuthor       = apperror.Forbidden("Only the author can change this post")
)

// Store is the post persistence the service needs
type Store interface {
	ListByTopic(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*Post, error)
	Update(ctx context.Context, id uuid.UUID, content string) (*Post, error)
	Delete(ctx context.Context, p *Post) error
}

// TopicChecker reports whether a topic exists
type TopicChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Activity is told about new posts so the people they answer can be notified
type Activity interface {
	PostCreated(ctx context.Context, actorID, postID uuid.UUID)
}

// Service handles post business logic
type Service struct {
	repo     Store
	topics   TopicChecker
	authors  profile.Directory
	activity Activity
}

// NewService creates a new post service. activity may be nil.
func NewService(repo Store, topics TopicChecker, authors profile.Directory, activity Activity) *Service {
	return &Service{repo: repo, topics: topics, authors: authors, activity: activity}
}

// List returns a topic's posts, failing when the topic does not exist
func (s *Service) List(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*PostResponse, error) {
	if err := s.requireTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return s.ListByTopic(ctx, topicID, viewer)
}

// ListByTopic returns top-level posts oldest-first, each with its replies oldest-first
func (s *Service) ListByTopic(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*PostResponse, error) {
	posts, err := s.repo.ListByTopic(ctx, topicID, viewer)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors, err := s.authors.Authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	return Nest(posts, authors), nil
}

// Create adds a post to a topic. A reply to a reply is attached to the
// top-level post instead so nesting stays one level deep.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*PostResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.TopicID == uuid.Nil {
		return nil, ErrTopicRequired
	}
	if req.Content == "" {
		return nil, ErrContentRequired
	}

	if err := s.requireTopic(ctx, req.TopicID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.TopicID != req.TopicID {
			return nil, ErrParentMismatch
		}
		if !parent.IsTopLevel() {
			grandparent := *parent.ParentID
			req.ParentID = &grandparent
		}
	}

	p, err := s.repo.Create(ctx, authorID, req)
	if err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.PostCreated(ctx, authorID, p.ID)
	}

	return s.respond(ctx, p)
}

// Update edits a post owned by callerID
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, req *UpdatePostRequest) (*PostResponse, error) {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	p, err := s.repo.Update(ctx, id, content)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return s.respond(ctx, p)
}

// Delete removes a post owned by callerID, with its replies and likes
func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	p, err := s.owned(ctx, callerID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p)
}

func (s *Service) owned(ctx context.Context, callerID, id uuid.UUID) (*Post, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	if p.AuthorID != callerID {
		return nil, ErrNotAuthor
	}
	return p, nil
}

func (s *Service) requireTopic(ctx context.Context, topicID uuid.UUID) error {
	exists, err := s.topics.Exists(ctx, topicID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTopicNotFound
	}
	return nil
}

func (s *Service) respond(ctx context.Context, p *Post) (*PostResponse, error) {
	authors, err := s.authors.Authors(ctx, []uuid.UUID{p.AuthorID})
	if err != nil {
		return nil, err
	}
	return p.ToResponse(authorFor(authors, p.AuthorID)), nil
}
