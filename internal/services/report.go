// Package services contains the business logic of the incident workflow.
// Services validate, mutate through the store collaborators, and hand
// notification side effects to the notifier.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/media"
	"github.com/resqnet/incident-server/internal/metrics"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/store"
)

// ResubmissionWindow is how long an owner may correct a rejected report.
const ResubmissionWindow = 5 * 24 * time.Hour

// MaxResubmissions caps how many times one report can be resubmitted.
const MaxResubmissions = 3

// Notifier receives workflow side effects. Implementations are best-effort:
// they log their own failures and never return them to the lifecycle.
type Notifier interface {
	NotifyNearby(ctx context.Context, report models.Report, authorID string)
	NotifyOwner(ctx context.Context, report models.Report, oldStatus, newStatus models.ReportStatus, byAdmin bool)
	NotifyRejection(ctx context.Context, ownerID, reportID, reason string)
}

// transitionKey identifies one edge of the status state machine.
type transitionKey struct {
	from, to models.ReportStatus
}

type transitionRule struct {
	requiresReason bool
}

// transitions enumerates every edge reachable through ChangeStatus. REJECTED
// returns to PENDING only through Resubmit, and ANONYMOUS is produced only by
// owner deactivation, so neither appears here.
var transitions = map[transitionKey]transitionRule{
	{models.StatusPending, models.StatusVerified}:  {},
	{models.StatusPending, models.StatusRejected}:  {requiresReason: true},
	{models.StatusPending, models.StatusResolved}:  {},
	{models.StatusVerified, models.StatusRejected}: {requiresReason: true},
	{models.StatusVerified, models.StatusResolved}: {},
}

// ReportService drives the report lifecycle: creation, editing, the review
// state machine, and the read paths.
type ReportService struct {
	reports    store.ReportStore
	users      store.UserDirectory
	categories store.CategoryCatalog
	media      media.Store
	notifier   Notifier
	logger     *zap.SugaredLogger
}

func NewReportService(
	reports store.ReportStore,
	users store.UserDirectory,
	categories store.CategoryCatalog,
	mediaStore media.Store,
	notifier Notifier,
	logger *zap.SugaredLogger,
) *ReportService {
	return &ReportService{
		reports:    reports,
		users:      users,
		categories: categories,
		media:      mediaStore,
		notifier:   notifier,
		logger:     logger,
	}
}

// Create validates the request, uploads images, persists the report in
// PENDING, links it to its owner, and triggers proximity notification.
// Notification failures never surface here.
func (s *ReportService) Create(ctx context.Context, req models.ReportRequest, ownerID string) (models.Report, error) {
	owner, err := s.findUser(ctx, ownerID)
	if err != nil {
		return models.Report{}, err
	}

	if err := validateRequest(req); err != nil {
		return models.Report{}, err
	}
	if err := s.validateCategories(ctx, req.Categories); err != nil {
		return models.Report{}, err
	}

	// Upload first: a media failure must abort creation before anything is
	// persisted.
	imageURLs, err := s.uploadImages(ctx, req.Images, nil)
	if err != nil {
		return models.Report{}, err
	}

	report := models.Report{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Categories:  req.Categories,
		ImageURLs:   imageURLs,
		OwnerID:     ownerID,
		Status:      models.StatusPending,
		Date:        time.Now(),
	}

	if err := s.reports.Save(ctx, report); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "persist report", err)
	}

	owner.Reports = append(owner.Reports, report.ID)
	if err := s.users.Save(ctx, owner); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "link report to owner", err)
	}

	metrics.ReportsCreated.Inc()
	s.logger.Infow("Report created", "report_id", report.ID, "owner_id", ownerID, "categories", req.Categories)

	s.notifier.NotifyNearby(ctx, report, ownerID)

	return report, nil
}

// Update replaces the mutable fields of a PENDING report. Only the owner may
// edit, and existing images are kept when the request carries none.
func (s *ReportService) Update(ctx context.Context, req models.ReportRequest, reportID, callerID string) (models.Report, error) {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if report.OwnerID != callerID {
		return models.Report{}, apperrors.Forbiddenf("only the owner may edit this report")
	}
	if report.Status == models.StatusRejected && deadlinePassed(report) {
		return models.Report{}, apperrors.Forbiddenf("the window to correct this report has expired")
	}
	if report.Status != models.StatusPending {
		return models.Report{}, apperrors.Forbiddenf("only pending reports can be edited")
	}

	if err := validateRequest(req); err != nil {
		return models.Report{}, err
	}
	if err := s.validateCategories(ctx, req.Categories); err != nil {
		return models.Report{}, err
	}

	imageURLs, err := s.uploadImages(ctx, req.Images, report.ImageURLs)
	if err != nil {
		return models.Report{}, err
	}

	report.Title = req.Title
	report.Description = req.Description
	report.Location = req.Location
	report.Categories = req.Categories
	report.ImageURLs = imageURLs
	report.Date = time.Now()

	if err := s.reports.Save(ctx, report); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "persist report", err)
	}
	return report, nil
}

// Delete removes a PENDING report. Allowed for the owner or an administrator.
func (s *ReportService) Delete(ctx context.Context, reportID, callerID string) error {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return err
	}
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return err
	}

	if !caller.IsAdmin() && report.OwnerID != callerID {
		return apperrors.Forbiddenf("only the owner or an administrator may delete this report")
	}
	if report.Status != models.StatusPending {
		return apperrors.Forbiddenf("only pending reports can be deleted")
	}

	if err := s.reports.DeleteByID(ctx, reportID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "delete report", err)
	}

	// Unlink from the owner, who is not necessarily the caller.
	owner, err := s.users.FindByID(ctx, report.OwnerID)
	if err == nil {
		owner.Reports = removeString(owner.Reports, reportID)
		if saveErr := s.users.Save(ctx, owner); saveErr != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "unlink report from owner", saveErr)
		}
	}

	s.logger.Infow("Report deleted", "report_id", reportID, "caller_id", callerID)
	return nil
}

// ChangeStatus executes one edge of the state machine. Administrators may
// drive any valid transition; a non-admin may only move their own report from
// PENDING to RESOLVED. On success the owner is notified; that notification is
// best-effort.
func (s *ReportService) ChangeStatus(ctx context.Context, reportID string, newStatus models.ReportStatus, rejectionReason, callerID string) (models.Report, error) {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return models.Report{}, err
	}

	if !caller.IsAdmin() {
		ownResolve := report.OwnerID == callerID &&
			newStatus == models.StatusResolved &&
			report.Status == models.StatusPending
		if !ownResolve {
			return models.Report{}, apperrors.Forbiddenf("not allowed to change this report to %s", newStatus)
		}
	}

	if err := validateTransition(report, newStatus, rejectionReason); err != nil {
		return models.Report{}, err
	}

	oldStatus := report.Status
	report.Status = newStatus
	stampTransition(&report, newStatus, rejectionReason, caller)

	if err := s.reports.Save(ctx, report); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "persist report", err)
	}

	metrics.StatusTransitions.WithLabelValues(string(oldStatus), string(newStatus)).Inc()
	s.logger.Infow("Report status changed",
		"report_id", reportID, "from", oldStatus, "to", newStatus, "caller_id", callerID)

	s.notifier.NotifyOwner(ctx, report, oldStatus, newStatus, caller.IsAdmin())

	return report, nil
}

// RejectWithReason is the administrator path for rejection: same validation
// as ChangeStatus plus an out-of-band mail to the owner. Mail failure is
// logged, never propagated.
func (s *ReportService) RejectWithReason(ctx context.Context, reportID, reason, adminID string) (models.Report, error) {
	admin, err := s.findUser(ctx, adminID)
	if err != nil {
		return models.Report{}, err
	}
	if !admin.IsAdmin() {
		return models.Report{}, apperrors.Forbiddenf("only administrators may reject reports")
	}

	report, err := s.ChangeStatus(ctx, reportID, models.StatusRejected, reason, adminID)
	if err != nil {
		return models.Report{}, err
	}

	s.notifier.NotifyRejection(ctx, report.OwnerID, report.ID, reason)
	return report, nil
}

// Resubmit returns a rejected report to PENDING with corrected fields,
// provided the owner acts inside the window and under the resubmission cap.
func (s *ReportService) Resubmit(ctx context.Context, req models.ReportRequest, reportID, callerID string) (models.Report, error) {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if report.OwnerID != callerID {
		return models.Report{}, apperrors.Forbiddenf("only the owner may resubmit this report")
	}
	if report.Status != models.StatusRejected {
		return models.Report{}, apperrors.Forbiddenf("only rejected reports can be resubmitted")
	}
	if deadlinePassed(report) {
		return models.Report{}, apperrors.Forbiddenf("the %d-day window to resubmit has expired", int(ResubmissionWindow.Hours()/24))
	}
	if report.ResubmissionCount >= MaxResubmissions {
		return models.Report{}, apperrors.Forbiddenf("the maximum of %d resubmissions has been reached", MaxResubmissions)
	}

	if err := validateRequest(req); err != nil {
		return models.Report{}, err
	}
	if err := s.validateCategories(ctx, req.Categories); err != nil {
		return models.Report{}, err
	}

	imageURLs, err := s.uploadImages(ctx, req.Images, report.ImageURLs)
	if err != nil {
		return models.Report{}, err
	}

	report.Title = req.Title
	report.Description = req.Description
	report.Location = req.Location
	report.Categories = req.Categories
	report.ImageURLs = imageURLs
	report.Status = models.StatusPending
	report.ResubmissionCount++
	report.Date = time.Now()

	if err := s.reports.Save(ctx, report); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "persist report", err)
	}

	s.logger.Infow("Report resubmitted",
		"report_id", reportID, "owner_id", callerID, "resubmissions", report.ResubmissionCount)
	return report, nil
}

// GetByID returns one report.
func (s *ReportService) GetByID(ctx context.Context, reportID string) (models.Report, error) {
	return s.findReport(ctx, reportID)
}

// GetByUser returns every report owned by the user, resolved through the
// owner's report set.
func (s *ReportService) GetByUser(ctx context.Context, ownerID string) ([]models.Report, error) {
	owner, err := s.findUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.FindAllByIDs(ctx, owner.Reports)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load user reports", err)
	}
	return reports, nil
}

// Filtered runs the composed predicate query. Administrator-only.
func (s *ReportService) Filtered(ctx context.Context, filter models.ReportFilter, adminID string) ([]models.Report, error) {
	admin, err := s.findUser(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin() {
		return nil, apperrors.Forbiddenf("only administrators may run filtered queries")
	}

	reports, err := s.reports.Query(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "query reports", err)
	}
	return reports, nil
}

// --- helpers ---

func (s *ReportService) findReport(ctx context.Context, id string) (models.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Report{}, apperrors.NotFoundf("report %s not found", id)
	}
	if err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "load report", err)
	}
	return report, nil
}

func (s *ReportService) findUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperrors.NotFoundf("user %s not found", id)
	}
	if err != nil {
		return models.User{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	return user, nil
}

func (s *ReportService) validateCategories(ctx context.Context, ids []string) error {
	var missing []string
	for _, id := range ids {
		exists, err := s.categories.Exists(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "check category", err)
		}
		if !exists {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NotFoundf("categories not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

// uploadImages uploads new blobs, or keeps the existing URLs when the
// request carries none.
func (s *ReportService) uploadImages(ctx context.Context, blobs []models.ImageBlob, existing []string) ([]string, error) {
	if len(blobs) == 0 {
		return existing, nil
	}
	urls, err := s.media.Upload(ctx, blobs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "upload images", err)
	}
	return urls, nil
}

func validateRequest(req models.ReportRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.Validationf("title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.Validationf("description is required")
	}
	if len(req.Categories) == 0 {
		return apperrors.Validationf("at least one category is required")
	}
	return nil
}

// validateTransition checks the requested edge against the transition table.
// A blank reason on a rejection is a validation failure; an edge missing from
// the table is a business-rule failure.
func validateTransition(report models.Report, newStatus models.ReportStatus, rejectionReason string) error {
	if newStatus == models.StatusRejected && strings.TrimSpace(rejectionReason) == "" {
		return apperrors.Validationf("a rejection reason is required")
	}

	if _, ok := transitions[transitionKey{report.Status, newStatus}]; !ok {
		return apperrors.BusinessRulef("cannot change report from %s to %s", report.Status, newStatus)
	}
	return nil
}

// stampTransition records the audit fields of the target state.
func stampTransition(report *models.Report, newStatus models.ReportStatus, rejectionReason string, caller models.User) {
	now := time.Now()
	switch newStatus {
	case models.StatusRejected:
		deadline := now.Add(ResubmissionWindow)
		report.RejectionReason = rejectionReason
		report.RejectionDate = &now
		report.ResubmissionDeadline = &deadline
	case models.StatusVerified:
		report.VerifiedBy = caller.ID
		report.VerificationDate = &now
	case models.StatusResolved:
		report.ResolutionDate = &now
		if caller.IsAdmin() {
			report.ResolvedBy = caller.ID
		}
	}
}

func deadlinePassed(report models.Report) bool {
	return report.ResubmissionDeadline != nil && time.Now().After(*report.ResubmissionDeadline)
}

// removeString returns a fresh slice so callers holding the input, such as a
// store's saved copy, never observe the removal early.
func removeString(list []string, target string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// TransitionAllowed reports whether ChangeStatus can ever move a report from
// one status to another, independent of caller and reason.
func TransitionAllowed(from, to models.ReportStatus) bool {
	_, ok := transitions[transitionKey{from, to}]
	return ok
}
