package topic

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/post"
	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/pkg/apperror"
	"github.com/fkhayef/fellowship/pkg/metrics"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Common errors
var (
	ErrTopicNotFound   = apperror.NotFound("Topic not found")
	ErrNotAuthor       = apperror.Forbidden("Only the author can change this topic")
	ErrMissingFields   = apperror.Validation("Title, description and category are required")
	ErrInvalidCategory = apperror.Validation("Invalid category")
)

// Store is the topic persistence the service needs
type Store interface {
	Create(ctx context.Context, authorID uuid.UUID, req *CreateTopicRequest) (*Topic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Topic, error)
	List(ctx context.Context, params ListParams) ([]*Topic, int, error)
	CountReplies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (int, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateTopicRequest) (*Topic, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostLister returns a topic's posts nested one level deep
type PostLister interface {
	ListByTopic(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*post.PostResponse, error)
}

// Service composes topics with their authors, reply counts and posts
type Service struct {
	repo     Store
	posts    PostLister
	authors  profile.Directory
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// NewService creates a new topic service. recorder may be nil.
func NewService(repo Store, posts PostLister, authors profile.Directory, logger *slog.Logger, recorder *metrics.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		posts:    posts,
		authors:  authors,
		logger:   logger,
		recorder: recorder,
	}
}

// Create validates and stores a new topic
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req *CreateTopicRequest) (*TopicResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	if req.Title == "" || req.Description == "" || req.Category == "" {
		return nil, ErrMissingFields
	}
	if !IsValidCategory(req.Category) {
		return nil, ErrInvalidCategory.WithDetails("category must be one of: " + strings.Join(Categories, ", "))
	}
	req.Tags = NormalizeTags(req.Tags)

	t, err := s.repo.Create(ctx, authorID, req)
	if err != nil {
		return nil, err
	}

	author, err := s.author(ctx, t.AuthorID)
	if err != nil {
		return nil, err
	}
	return t.ToResponse(author, 0), nil
}

// List returns a page of topics newest-first with live reply counts
func (s *Service) List(ctx context.Context, params ListParams) (*ListResponse, error) {
	if params.Limit < 1 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	topics, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(topics))
	authorIDs := make([]uuid.UUID, len(topics))
	for i, t := range topics {
		ids[i] = t.ID
		authorIDs[i] = t.AuthorID
	}

	replies, err := s.repo.CountReplies(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.authors.Authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{Topics: make([]*TopicResponse, len(topics)), TotalCount: total}
	for i, t := range topics {
		resp.Topics[i] = t.ToResponse(authors[t.AuthorID], replies[t.ID])
	}
	return resp, nil
}

// Get returns a topic with its posts and bumps its view counter.
// A failed view bump is logged and does not fail the read.
func (s *Service) Get(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*DetailResponse, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTopicNotFound
	}

	if views, err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "view count not incremented", "topic_id", id, "error", err)
		s.recorder.BookkeepingFailed("topic_views")
	} else {
		t.ViewsCount = views
	}

	posts, err := s.posts.ListByTopic(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	author, err := s.author(ctx, t.AuthorID)
	if err != nil {
		return nil, err
	}

	return &DetailResponse{
		Topic: t.ToResponse(author, len(posts)),
		Posts: posts,
	}, nil
}

// Update edits a topic owned by callerID
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, req *UpdateTopicRequest) (*TopicResponse, error) {
	existing, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	t, err := s.repo.Update(ctx, existing.ID, req)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTopicNotFound
	}

	counts, err := s.repo.CountReplies(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	author, err := s.author(ctx, t.AuthorID)
	if err != nil {
		return nil, err
	}
	return t.ToResponse(author, counts[t.ID]), nil
}

// Delete removes a topic owned by callerID along with its posts and likes
func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) owned(ctx context.Context, callerID, id uuid.UUID) (*Topic, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTopicNotFound
	}
	if t.AuthorID != callerID {
		return nil, ErrNotAuthor
	}
	return t, nil
}

func (s *Service) author(ctx context.Context, id uuid.UUID) (profile.Author, error) {
	authors, err := s.authors.Authors(ctx, []uuid.UUID{id})
	if err != nil {
		return profile.Author{}, err
	}
	return authors[id], nil
}

func validateUpdate(req *UpdateTopicRequest) error {
	for _, field := range []*string{req.Title, req.Description, req.Category} {
		if field == nil {
			continue
		}
		*field = strings.TrimSpace(*field)
		if *field == "" {
			return ErrMissingFields
		}
	}
	if req.Category != nil && !IsValidCategory(*req.Category) {
		return ErrInvalidCategory
	}
	if req.Tags != nil {
		req.Tags = NormalizeTags(req.Tags)
	}
	return nil
}
