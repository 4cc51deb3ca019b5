package post

import (
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/profile"
)

// CreatePostRequest represents the request to reply to a topic or a post
type CreatePostRequest struct {
	TopicID  uuid.UUID  `json:"topicId"`
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
}

// UpdatePostRequest represents the request to edit a post
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// PostResponse represents a post with its author, like state and replies
type PostResponse struct {
	ID        uuid.UUID       `json:"id"`
	TopicID   uuid.UUID       `json:"topicId"`
	ParentID  *uuid.UUID      `json:"parentId"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Likes     int             `json:"likes"`
	IsLiked   bool            `json:"isLiked"`
	Author    profile.Author  `json:"author"`
	Replies   []*PostResponse `json:"replies"`
}

// ListResponse wraps a topic's nested posts
type ListResponse struct {
	Posts []*PostResponse `json:"posts"`
}

// CreateResponse is returned after creating a post
type CreateResponse struct {
	Success bool          `json:"success"`
	Post    *PostResponse `json:"post"`
}

// ToResponse converts a Post model to a PostResponse DTO without replies
func (p *Post) ToResponse(author profile.Author) *PostResponse {
	return &PostResponse{
		ID:        p.ID,
		TopicID:   p.TopicID,
		ParentID:  p.ParentID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Likes:     p.LikesCount,
		IsLiked:   p.IsLiked,
		Author:    author,
		Replies:   []*PostResponse{},
	}
}

// Nest arranges posts, already ordered oldest-first, into top-level posts each
// carrying its replies. Replies whose parent is missing or not top-level are dropped.
func Nest(posts []*Post, authors map[uuid.UUID]profile.Author) []*PostResponse {
	top := make([]*PostResponse, 0, len(posts))
	byID := make(map[uuid.UUID]*PostResponse, len(posts))

	for _, p := range posts {
		if !p.IsTopLevel() {
			continue
		}
		resp := p.ToResponse(authorFor(authors, p.AuthorID))
		top = append(top, resp)
		byID[p.ID] = resp
	}

	for _, p := range posts {
		if p.IsTopLevel() {
			continue
		}
		parent, ok := byID[*p.ParentID]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, p.ToResponse(authorFor(authors, p.AuthorID)))
	}

	return top
}

func authorFor(authors map[uuid.UUID]profile.Author, id uuid.UUID) profile.Author {
	if a, ok := authors[id]; ok {
		return a
	}
	return profile.UnknownAuthor(id)
}
