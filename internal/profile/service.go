package profile

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/apperror"
)

const maxDisplayNameLength = 50

// Common errors
var (
	ErrInvalidDisplayName = apperror.Validation("Display name must be between 1 and 50 characters")
)

// Store is the persistence the profile service needs
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*Profile, error)
	Ensure(ctx context.Context, id uuid.UUID) (*Profile, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*Profile, error)
}

// Directory resolves author blocks for the aggregation layers
type Directory interface {
	Authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Author, error)
}

// Service handles profile business logic
type Service struct {
	repo Store
}

// NewService creates a new profile service with repository dependency injected
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Me returns the caller's profile, creating it on first sign-in
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.Ensure(ctx, userID)
}

// Update changes the caller's display name and/or avatar
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLength {
			return nil, ErrInvalidDisplayName
		}
		req.DisplayName = &name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		req.AvatarURL = &avatar
	}

	if _, err := s.repo.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, req)
}

// Author returns the public author block for id, falling back to "Unknown"
func (s *Service) Author(ctx context.Context, id uuid.UUID) (Author, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Author{}, err
	}
	if p == nil {
		return UnknownAuthor(id), nil
	}
	return p.Author(), nil
}

// Authors resolves every id to an author block. Ids without a profile row get
// the Unknown fallback, so the result always has an entry per requested id.
func (s *Service) Authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Author, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	profiles, err := s.repo.GetMany(ctx, unique)
	if err != nil {
		return nil, err
	}

	authors := make(map[uuid.UUID]Author, len(unique))
	for _, id := range unique {
		authors[id] = UnknownAuthor(id)
	}
	for _, p := range profiles {
		authors[p.ID] = p.Author()
	}
	return authors, nil
}
