// Package handlers contains HTTP request handlers for the incident API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/middleware"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Helper: respond with a JSON error message
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Internal
// failures get a generic message; taxonomy errors surface their own.
func respondServiceError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// callerOr401 extracts the authenticated caller or writes a 401.
func callerOr401(w http.ResponseWriter, r *http.Request) (middleware.Caller, bool) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
	}
	return caller, ok
}
