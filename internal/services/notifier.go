package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/resqnet/incident-server/internal/geo"
	"github.com/resqnet/incident-server/internal/mailer"
	"github.com/resqnet/incident-server/internal/metrics"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/notify"
	"github.com/resqnet/incident-server/internal/store"
)

// NotificationRadiusKm is the fixed proximity radius for new-report fan-out.
const NotificationRadiusKm = 10.0

// maxConcurrentSends bounds the fan-out; matched user sets are typically
// small, so this is a guard against pathological density, not a tuning knob.
const maxConcurrentSends = 8

// NotificationService resolves nearby users for new reports and pushes
// workflow messages through the sink. Every method is fire-and-forget:
// failures are logged and swallowed.
type NotificationService struct {
	users  store.UserDirectory
	sink   notify.Sink
	mail   mailer.Mailer
	logger *zap.SugaredLogger
}

func NewNotificationService(users store.UserDirectory, sink notify.Sink, mail mailer.Mailer, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{users: users, sink: sink, mail: mail, logger: logger}
}

// NotifyNearby pushes one event, with the computed distance, to every user
// within the notification radius of the report, excluding its author. A
// failure for one user never aborts delivery to the rest.
func (s *NotificationService) NotifyNearby(ctx context.Context, report models.Report, authorID string) {
	radiusMeters := NotificationRadiusKm * 1000

	nearby, err := s.users.FindNear(ctx, report.Location.Longitude, report.Location.Latitude, radiusMeters, authorID)
	if err != nil {
		s.logger.Errorw("Nearby user lookup failed", "report_id", report.ID, "error", err)
		return
	}
	if len(nearby) == 0 {
		s.logger.Debugw("No nearby users to notify", "report_id", report.ID)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)

	for _, user := range nearby {
		if user.Location == nil {
			continue
		}
		user := user
		g.Go(func() error {
			distance := geo.DistanceKm(report.Location, *user.Location)
			payload := models.NearbyReportNotification{
				ReportID:   report.ID,
				Title:      report.Title,
				DistanceKm: distance,
				Categories: report.Categories,
				Timestamp:  time.Now().Format(time.RFC3339),
			}

			if err := s.sink.SendToUser(ctx, user.ID, notify.ChannelNearbyReports, payload); err != nil {
				metrics.NotificationsFailed.WithLabelValues(notify.ChannelNearbyReports).Inc()
				s.logger.Errorw("Nearby notification failed",
					"report_id", report.ID, "user_id", user.ID, "error", err)
				return nil
			}
			metrics.NotificationsSent.WithLabelValues(notify.ChannelNearbyReports).Inc()
			s.logger.Debugw("Nearby notification sent",
				"report_id", report.ID, "user_id", user.ID, "distance_km", distance)
			return nil
		})
	}

	// Workers always return nil; Wait only orders the sends before return.
	_ = g.Wait()
}

// NotifyOwner tells the report owner about a status change on their private
// channel. Admin-driven verifications carry a distinguishing annotation.
func (s *NotificationService) NotifyOwner(ctx context.Context, report models.Report, oldStatus, newStatus models.ReportStatus, byAdmin bool) {
	text := fmt.Sprintf("Report %s: status changed from %s to %s", report.ID, oldStatus, newStatus)
	if byAdmin && newStatus == models.StatusVerified {
		text += " (verified by administrator)"
	}

	msg := models.StatusChangeMessage{
		ReportID:  report.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Message:   text,
	}

	if err := s.sink.SendToUser(ctx, report.OwnerID, notify.ChannelStatusUpdates, msg); err != nil {
		metrics.NotificationsFailed.WithLabelValues(notify.ChannelStatusUpdates).Inc()
		s.logger.Errorw("Status change notification failed",
			"report_id", report.ID, "owner_id", report.OwnerID, "error", err)
		return
	}
	metrics.NotificationsSent.WithLabelValues(notify.ChannelStatusUpdates).Inc()
}

// NotifyComment tells the report owner that someone commented, in-app and by
// mail. Anonymized reports have nobody left to tell. Both legs are
// best-effort.
func (s *NotificationService) NotifyComment(ctx context.Context, report models.Report, author models.User, comment models.Comment) {
	if report.OwnerID == models.AnonymousOwner {
		return
	}

	owner, err := s.users.FindByID(ctx, report.OwnerID)
	if err != nil {
		s.logger.Errorw("Comment mail skipped, owner lookup failed",
			"report_id", report.ID, "owner_id", report.OwnerID, "error", err)
	} else if owner.Email != "" {
		subject := "New comment on your report"
		body := fmt.Sprintf("Hello %s,\n\n%s commented on your report %q:\n\n%q\n\nResQNET support team",
			owner.Name, author.Name, report.Title, snippet(comment.Content, 50))
		if err := s.mail.Send(ctx, owner.Email, subject, body); err != nil {
			s.logger.Errorw("Comment mail failed",
				"report_id", report.ID, "owner_id", report.OwnerID, "error", err)
		}
	}

	msg := models.CommentNotification{
		ReportID:  report.ID,
		CommentID: comment.ID,
		AuthorID:  author.ID,
		Message:   fmt.Sprintf("%s commented on your report %q", author.Name, report.Title),
	}

	if err := s.sink.SendToUser(ctx, report.OwnerID, notify.ChannelReportComments, msg); err != nil {
		metrics.NotificationsFailed.WithLabelValues(notify.ChannelReportComments).Inc()
		s.logger.Errorw("Comment notification failed",
			"report_id", report.ID, "owner_id", report.OwnerID, "error", err)
		return
	}
	metrics.NotificationsSent.WithLabelValues(notify.ChannelReportComments).Inc()
}

// snippet shortens mail previews of user-supplied text.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// NotifyRejection tells the owner about a rejection both in-app and by mail.
// Either leg failing is logged, never propagated.
func (s *NotificationService) NotifyRejection(ctx context.Context, ownerID, reportID, reason string) {
	windowDays := int(ResubmissionWindow.Hours() / 24)

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		s.logger.Errorw("Rejection mail skipped, owner lookup failed",
			"report_id", reportID, "owner_id", ownerID, "error", err)
	} else if owner.Email != "" {
		subject := "Your report has been rejected"
		body := fmt.Sprintf(
			"Hello %s,\n\nYour report %s was rejected for the following reason:\n\n%q\n\n"+
				"You have %d days to correct it and resubmit it from the platform.\n\nResQNET support team",
			owner.Name, reportID, reason, windowDays)
		if err := s.mail.Send(ctx, owner.Email, subject, body); err != nil {
			s.logger.Errorw("Rejection mail failed",
				"report_id", reportID, "owner_id", ownerID, "error", err)
		}
	}

	text := fmt.Sprintf("Your report %s was rejected: %s. You have %d days to correct and resubmit it.",
		reportID, reason, windowDays)

	if err := s.sink.SendToUser(ctx, ownerID, notify.ChannelReportRejections, text); err != nil {
		metrics.NotificationsFailed.WithLabelValues(notify.ChannelReportRejections).Inc()
		s.logger.Errorw("Rejection notification failed",
			"report_id", reportID, "owner_id", ownerID, "error", err)
		return
	}
	metrics.NotificationsSent.WithLabelValues(notify.ChannelReportRejections).Inc()
}
