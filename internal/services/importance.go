package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/store"
)

// ImportanceService maintains the "user marked report as important" relation
// and the denormalized counter on the report.
type ImportanceService struct {
	reports store.ReportStore
	users   store.UserDirectory
	logger  *zap.SugaredLogger
}

func NewImportanceService(reports store.ReportStore, users store.UserDirectory, logger *zap.SugaredLogger) *ImportanceService {
	return &ImportanceService{reports: reports, users: users, logger: logger}
}

// Toggle flips the importance mark of one user on one report. The counter is
// recomputed from the liked-by set after every flip, so alternating toggles
// always leave it equal to the set's size.
func (s *ImportanceService) Toggle(ctx context.Context, reportID, userID string) (models.Report, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Report{}, apperrors.NotFoundf("report %s not found", reportID)
	}
	if err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "load report", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Report{}, apperrors.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	if contains(user.LikedReports, reportID) {
		user.LikedReports = removeString(user.LikedReports, reportID)
		report.LikedBy = removeString(report.LikedBy, userID)
		s.logger.Infow("Importance removed", "report_id", reportID, "user_id", userID)
	} else {
		user.LikedReports = append(user.LikedReports, reportID)
		report.LikedBy = append(report.LikedBy, userID)
		s.logger.Infow("Importance added", "report_id", reportID, "user_id", userID)
	}
	report.RatingsImportant = len(report.LikedBy)

	// No cross-document transaction: a crash between the two saves leaves a
	// divergence the next toggle corrects, because the counter is always
	// recomputed from the set.
	if err := s.users.Save(ctx, user); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "persist user", err)
	}
	if err := s.reports.Save(ctx, report); err != nil {
		return models.Report{}, apperrors.Wrap(apperrors.CodeInternal, "persist report", err)
	}

	return report, nil
}

// LikedBy returns the ids of users who marked the report important.
func (s *ImportanceService) LikedBy(ctx context.Context, reportID string) ([]string, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("report %s not found", reportID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load report", err)
	}
	return append([]string{}, report.LikedBy...), nil
}

// LikedReports returns the ids of reports the user marked important.
func (s *ImportanceService) LikedReports(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	return append([]string{}, user.LikedReports...), nil
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
