package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/services"
)

// CommentHandler exposes report comments over HTTP.
type CommentHandler struct {
	commentSvc *services.CommentService
	logger     *zap.SugaredLogger
}

func NewCommentHandler(cs *services.CommentService, logger *zap.SugaredLogger) *CommentHandler {
	return &CommentHandler{commentSvc: cs, logger: logger}
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/reports/{reportID}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.commentSvc.Add(r.Context(), chi.URLParam(r, "reportID"), req.Content, caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// ListForReport handles GET /api/v1/reports/{reportID}/comments
func (h *CommentHandler) ListForReport(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentSvc.ListByReport(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// ListForUser handles GET /api/v1/users/{userID}/comments
func (h *CommentHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentSvc.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}
