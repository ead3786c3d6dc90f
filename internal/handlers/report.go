package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/services"
)

// ReportHandler exposes the report lifecycle over HTTP.
type ReportHandler struct {
	reportSvc     *services.ReportService
	importanceSvc *services.ImportanceService
	logger        *zap.SugaredLogger
}

func NewReportHandler(rs *services.ReportService, is *services.ImportanceService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reportSvc: rs, importanceSvc: is, logger: logger}
}

// Create handles POST /api/v1/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.reportSvc.Create(r.Context(), req, caller.ID)
	if err != nil {
		h.logger.Errorw("Create report failed", "owner_id", caller.ID, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// Get handles GET /api/v1/reports/{reportID}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportSvc.GetByID(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Mine handles GET /api/v1/reports/mine
func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	reports, err := h.reportSvc.GetByUser(r.Context(), caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Update handles PUT /api/v1/reports/{reportID}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.reportSvc.Update(r.Context(), req, chi.URLParam(r, "reportID"), caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/v1/reports/{reportID}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(r.Context(), chi.URLParam(r, "reportID"), caller.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type statusUpdateRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ChangeStatus handles PATCH /api/v1/reports/{reportID}/status
func (h *ReportHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, ok := models.ParseStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown status: "+req.Status)
		return
	}

	report, err := h.reportSvc.ChangeStatus(r.Context(), chi.URLParam(r, "reportID"), status, req.RejectionReason, caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /api/v1/reports/{reportID}/reject
func (h *ReportHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.reportSvc.RejectWithReason(r.Context(), chi.URLParam(r, "reportID"), req.Reason, caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Resubmit handles POST /api/v1/reports/{reportID}/resubmit
func (h *ReportHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.reportSvc.Resubmit(r.Context(), req, chi.URLParam(r, "reportID"), caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Filter handles POST /api/v1/reports/filter (admin only)
func (h *ReportHandler) Filter(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var filter models.ReportFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reports, err := h.reportSvc.Filtered(r.Context(), filter, caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// ToggleImportance handles POST /api/v1/reports/{reportID}/importance
func (h *ReportHandler) ToggleImportance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	report, err := h.importanceSvc.Toggle(r.Context(), chi.URLParam(r, "reportID"), caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report_id":         report.ID,
		"ratings_important": report.RatingsImportant,
	})
}

// LikedBy handles GET /api/v1/reports/{reportID}/liked-by
func (h *ReportHandler) LikedBy(w http.ResponseWriter, r *http.Request) {
	users, err := h.importanceSvc.LikedBy(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"liked_by": users})
}
