package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/services"
)

// CategoryHandler exposes the category catalog over HTTP.
type CategoryHandler struct {
	categorySvc *services.CategoryService
	logger      *zap.SugaredLogger
}

func NewCategoryHandler(cs *services.CategoryService, logger *zap.SugaredLogger) *CategoryHandler {
	return &CategoryHandler{categorySvc: cs, logger: logger}
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categorySvc.ListActive(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/v1/categories (admin only)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	if !caller.IsAdmin() {
		respondError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.categorySvc.Create(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// Deactivate handles DELETE /api/v1/categories/{categoryID} (admin only)
func (h *CategoryHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	if !caller.IsAdmin() {
		respondError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	if err := h.categorySvc.Deactivate(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
