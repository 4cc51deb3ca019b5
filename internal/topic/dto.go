package topic

import (
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/post"
	"github.com/fkhayef/fellowship/internal/profile"
)

// CreateTopicRequest represents the request to create a new topic
type CreateTopicRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Tags        TagList `json:"tags" swaggertype:"array,string"`
}

// UpdateTopicRequest represents the request to edit a topic
type UpdateTopicRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Tags        TagList `json:"tags,omitempty" swaggertype:"array,string"`
}

// TopicResponse represents a topic annotated with its author and live reply count
type TopicResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
	Views       int            `json:"views"`
	Replies     int            `json:"replies"`
	Author      profile.Author `json:"author"`
}

// ListResponse is a page of topics
type ListResponse struct {
	Topics     []*TopicResponse `json:"topics"`
	TotalCount int              `json:"totalCount"`
}

// DetailResponse is a topic with its nested posts
type DetailResponse struct {
	Topic *TopicResponse       `json:"topic"`
	Posts []*post.PostResponse `json:"posts"`
}

// CreateResponse is returned after creating a topic
type CreateResponse struct {
	Success bool           `json:"success"`
	Topic   *TopicResponse `json:"topic"`
}

// ToResponse converts a Topic model to a TopicResponse DTO
func (t *Topic) ToResponse(author profile.Author, replies int) *TopicResponse {
	tags := []string(t.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &TopicResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Tags:        tags,
		CreatedAt:   t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   t.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Views:       t.ViewsCount,
		Replies:     replies,
		Author:      author,
	}
}
