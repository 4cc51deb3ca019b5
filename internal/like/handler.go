package like

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/middleware"
	"github.com/fkhayef/fellowship/pkg/response"
)

// Handler handles HTTP requests for likes
type Handler struct {
	service *Service
}

// NewHandler creates a new like handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for like endpoints. Every route requires a session.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth)

	r.Post("/", h.Like)
	r.Delete("/", h.Unlike)

	return r
}

// Like handles POST /likes
// @Summary      Like a post
// @Tags         likes
// @Accept       json
// @Produce      json
// @Param        request body LikeRequest true "Post to like"
// @Success      201 {object} LikeResponse
// @Failure      400 {object} response.ErrorBody "Invalid body or already liked"
// @Failure      401 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Router       /likes [post]
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.service.Like(r.Context(), userID, req.PostID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, resp)
}

// Unlike handles DELETE /likes
// @Summary      Remove a like
// @Tags         likes
// @Produce      json
// @Param        postId query string true "Post ID"
// @Success      200 {object} UnlikeResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      401 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Router       /likes [delete]
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	postID, err := uuid.Parse(r.URL.Query().Get("postId"))
	if err != nil {
		response.BadRequest(w, "Invalid post ID")
		return
	}

	resp, err := h.service.Unlike(r.Context(), userID, postID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}
