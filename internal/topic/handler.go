package topic

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/middleware"
	"github.com/fkhayef/fellowship/pkg/response"
)

// Handler handles HTTP requests for topic operations
type Handler struct {
	service *Service
}

// NewHandler creates a new topic handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for topic endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

// Create handles POST /topics
// @Summary      Create a topic
// @Description  Tags may be a comma-separated string or an array
// @Tags         topics
// @Accept       json
// @Produce      json
// @Param        request body CreateTopicRequest true "Topic creation request"
// @Success      201 {object} CreateResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      401 {object} response.ErrorBody
// @Router       /topics [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, CreateResponse{Success: true, Topic: t})
}

// List handles GET /topics
// @Summary      List topics
// @Description  Newest first, filtered by category and free-text search
// @Tags         topics
// @Produce      json
// @Param        category query string false "Category"
// @Param        search query string false "Matches title, description or tag"
// @Param        limit query int false "Page size" default(20)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} ListResponse
// @Failure      400 {object} response.ErrorBody
// @Router       /topics [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if params.Limit, err = strconv.Atoi(v); err != nil {
			response.BadRequest(w, "Invalid limit")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if params.Offset, err = strconv.Atoi(v); err != nil {
			response.BadRequest(w, "Invalid offset")
			return
		}
	}

	resp, err := h.service.List(r.Context(), params)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /topics/{id}
// @Summary      Get a topic with its posts
// @Description  Increments the view counter
// @Tags         topics
// @Produce      json
// @Param        id path string true "Topic ID"
// @Success      200 {object} DetailResponse
// @Failure      404 {object} response.ErrorBody
// @Router       /topics/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid topic ID")
		return
	}

	resp, err := h.service.Get(r.Context(), id, middleware.ViewerID(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Update handles PUT /topics/{id}
// @Summary      Edit a topic
// @Tags         topics
// @Accept       json
// @Produce      json
// @Param        id path string true "Topic ID"
// @Param        request body UpdateTopicRequest true "Fields to change"
// @Success      200 {object} TopicResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      403 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Router       /topics/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid topic ID")
		return
	}

	var req UpdateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, t)
}

// Delete handles DELETE /topics/{id}
// @Summary      Delete a topic
// @Description  Removes the topic, its posts and their likes
// @Tags         topics
// @Param        id path string true "Topic ID"
// @Success      200 {object} map[string]bool
// @Failure      403 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Router       /topics/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid topic ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
