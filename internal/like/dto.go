package like

import "github.com/google/uuid"

// LikeRequest represents the request to like a post
type LikeRequest struct {
	PostID uuid.UUID `json:"postId"`
}

// LikeResponse is returned after liking a post. Likes is the post's counter after the change.
type LikeResponse struct {
	Success bool  `json:"success"`
	Like    *Like `json:"like"`
	Likes   int   `json:"likes"`
}

// UnlikeResponse is returned after removing a like
type UnlikeResponse struct {
	Success bool `json:"success"`
	Likes   int  `json:"likes"`
}
