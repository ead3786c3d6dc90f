package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/store"
)

// MaxCommentLength caps the size of one comment.
const MaxCommentLength = 500

// CommentNotifier receives the comment side effect. Best-effort, like the
// rest of the notification path.
type CommentNotifier interface {
	NotifyComment(ctx context.Context, report models.Report, author models.User, comment models.Comment)
}

// CommentService lets users discuss reports. Comments attach to any report
// regardless of its review state; only anonymized reports stop notifying
// their former owner.
type CommentService struct {
	comments store.CommentStore
	reports  store.ReportStore
	users    store.UserDirectory
	notifier CommentNotifier
	logger   *zap.SugaredLogger
}

func NewCommentService(
	comments store.CommentStore,
	reports store.ReportStore,
	users store.UserDirectory,
	notifier CommentNotifier,
	logger *zap.SugaredLogger,
) *CommentService {
	return &CommentService{
		comments: comments,
		reports:  reports,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// Add validates and persists a comment on a report, then notifies the
// report's owner. Notification failures never surface here.
func (s *CommentService) Add(ctx context.Context, reportID, content, authorID string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, apperrors.Validationf("comment content is required")
	}
	if len(content) > MaxCommentLength {
		return models.Comment{}, apperrors.Validationf("comment exceeds %d characters", MaxCommentLength)
	}

	report, err := s.reports.FindByID(ctx, reportID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Comment{}, apperrors.NotFoundf("report %s not found", reportID)
	}
	if err != nil {
		return models.Comment{}, apperrors.Wrap(apperrors.CodeInternal, "load report", err)
	}

	author, err := s.users.FindByID(ctx, authorID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Comment{}, apperrors.NotFoundf("user %s not found", authorID)
	}
	if err != nil {
		return models.Comment{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	comment := models.Comment{
		ID:       uuid.NewString(),
		ReportID: reportID,
		AuthorID: authorID,
		Content:  content,
		Date:     time.Now(),
	}

	if err := s.comments.Save(ctx, comment); err != nil {
		return models.Comment{}, apperrors.Wrap(apperrors.CodeInternal, "persist comment", err)
	}

	s.logger.Infow("Comment added", "comment_id", comment.ID, "report_id", reportID, "author_id", authorID)

	s.notifier.NotifyComment(ctx, report, author, comment)

	return comment, nil
}

// ListByReport returns a report's comments in chronological order.
func (s *CommentService) ListByReport(ctx context.Context, reportID string) ([]models.Comment, error) {
	if _, err := s.reports.FindByID(ctx, reportID); errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("report %s not found", reportID)
	} else if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load report", err)
	}

	comments, err := s.comments.ListByReport(ctx, reportID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list comments", err)
	}
	return comments, nil
}

// ListByUser returns every comment one user has written.
func (s *CommentService) ListByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	if _, err := s.users.FindByID(ctx, userID); errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("user %s not found", userID)
	} else if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	comments, err := s.comments.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list comments", err)
	}
	return comments, nil
}
