package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fallbacks shown when an author has no profile row or left fields empty
const (
	UnknownName       = "Unknown"
	PlaceholderAvatar = "/images/avatar-placeholder.png"
)

// Profile is the per-user display record, keyed by the auth provider's user ID
type Profile struct {
	ID          uuid.UUID `db:"id"`
	DisplayName *string   `db:"display_name"`
	AvatarURL   *string   `db:"avatar_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Author is the denormalized author block embedded in topics, posts and groups
type Author struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// UnknownAuthor is used when no profile row exists for id
func UnknownAuthor(id uuid.UUID) Author {
	return Author{ID: id, Name: UnknownName, Avatar: PlaceholderAvatar}
}

// Author converts the profile, substituting fallbacks for blank fields
func (p *Profile) Author() Author {
	author := UnknownAuthor(p.ID)
	if p.DisplayName != nil && strings.TrimSpace(*p.DisplayName) != "" {
		author.Name = strings.TrimSpace(*p.DisplayName)
	}
	if p.AvatarURL != nil && strings.TrimSpace(*p.AvatarURL) != "" {
		author.Avatar = strings.TrimSpace(*p.AvatarURL)
	}
	return author
}
