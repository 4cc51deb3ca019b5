package profile

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/middleware"
	"github.com/fkhayef/fellowship/pkg/response"
)

// Handler handles HTTP requests for profile operations
type Handler struct {
	service *Service
}

// NewHandler creates a new profile handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for profile endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireAuth).Get("/me", h.Me)
	r.With(middleware.RequireAuth).Put("/me", h.Update)
	r.Get("/{id}", h.GetByID)

	return r
}

// Me handles GET /profiles/me
// @Summary      Get my profile
// @Description  Returns the caller's profile, creating it on first sign-in
// @Tags         profiles
// @Produce      json
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} response.ErrorBody
// @Router       /profiles/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	p, err := h.service.Me(r.Context(), userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}

// Update handles PUT /profiles/me
// @Summary      Update my profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileRequest true "Profile fields to change"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      401 {object} response.ErrorBody
// @Router       /profiles/me [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Update(r.Context(), userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}

// GetByID handles GET /profiles/{id}
// @Summary      Get an author's public profile
// @Tags         profiles
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} Author
// @Failure      400 {object} response.ErrorBody
// @Router       /profiles/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	author, err := h.service.Author(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, author)
}
