package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/services"
)

// UserHandler exposes account management over HTTP.
type UserHandler struct {
	userSvc       *services.UserService
	importanceSvc *services.ImportanceService
	logger        *zap.SugaredLogger
}

func NewUserHandler(us *services.UserService, is *services.ImportanceService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{userSvc: us, importanceSvc: is, logger: logger}
}

// Register handles POST /api/v1/users (public)
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userSvc.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Get handles GET /api/v1/users/{userID}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateLocation handles PUT /api/v1/users/me/location
func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var location models.Point
	if err := json.NewDecoder(r.Body).Decode(&location); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userSvc.UpdateLocation(r.Context(), caller.ID, location); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Deactivate handles DELETE /api/v1/users/{userID}. A user may deactivate
// themselves; administrators may deactivate anyone.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	userID := chi.URLParam(r, "userID")
	if userID != caller.ID && !caller.IsAdmin() {
		respondError(w, http.StatusForbidden, "Not allowed to deactivate this user")
		return
	}

	if err := h.userSvc.Deactivate(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}

	h.logger.Infow("User deactivated via API", "user_id", userID, "caller_id", caller.ID)
	respondJSON(w, http.StatusNoContent, nil)
}

// LikedReports handles GET /api/v1/users/{userID}/liked-reports
func (h *UserHandler) LikedReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.importanceSvc.LikedReports(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"liked_reports": reports})
}
