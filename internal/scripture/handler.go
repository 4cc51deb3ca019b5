package scripture

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/fellowship/pkg/response"
)

// Source provides chapter text and search
type Source interface {
	Chapter(ctx context.Context, book string, chapter int) (*Chapter, error)
	Search(ctx context.Context, query string, limit int) (*SearchResult, error)
}

// ReferenceResponse is a normalized reference
type ReferenceResponse struct {
	Reference string `json:"reference"`
	Book      string `json:"book"`
	Chapter   int    `json:"chapter"`
	Verse     int    `json:"verse,omitempty"`
}

// SearchResponse carries the variant the upstream answered with and its flattened hits
type SearchResponse struct {
	Kind SearchKind `json:"kind"`
	Hits []Hit      `json:"hits"`
}

// Handler handles HTTP requests for scripture lookups
type Handler struct {
	source Source
}

// NewHandler creates a new scripture handler
func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// Routes returns the router for scripture endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/reference", h.Normalize)
	r.Get("/chapters/{book}/{chapter}", h.Chapter)
	r.Get("/search", h.Search)

	return r
}

// Normalize handles GET /scripture/reference
// @Summary      Normalize a scripture reference
// @Tags         scripture
// @Produce      json
// @Param        ref query string true "Reference, e.g. 1 Samuel 1:1"
// @Success      200 {object} ReferenceResponse
// @Failure      400 {object} response.ErrorBody
// @Router       /scripture/reference [get]
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	ref, err := ParseReference(r.URL.Query().Get("ref"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, ReferenceResponse{
		Reference: ref.Format(),
		Book:      ref.Book,
		Chapter:   ref.Chapter,
		Verse:     ref.Verse,
	})
}

// Chapter handles GET /scripture/chapters/{book}/{chapter}
// @Summary      Get a chapter
// @Tags         scripture
// @Produce      json
// @Param        book path string true "Book name or alias"
// @Param        chapter path int true "Chapter number"
// @Success      200 {object} Chapter
// @Failure      400 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /scripture/chapters/{book}/{chapter} [get]
func (h *Handler) Chapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := strconv.Atoi(chi.URLParam(r, "chapter"))
	if err != nil {
		response.BadRequest(w, "Invalid chapter")
		return
	}

	ch, err := h.source.Chapter(r.Context(), chi.URLParam(r, "book"), chapter)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, ch)
}

// Search handles GET /scripture/search
// @Summary      Search scripture
// @Tags         scripture
// @Produce      json
// @Param        q query string true "Search text"
// @Param        limit query int false "Maximum hits" default(20)
// @Success      200 {object} SearchResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /scripture/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		if limit, err = strconv.Atoi(v); err != nil {
			response.BadRequest(w, "Invalid limit")
			return
		}
	}

	result, err := h.source.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, SearchResponse{Kind: result.Kind, Hits: result.Hits()})
}
