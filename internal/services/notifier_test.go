package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/mailer"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/notify"
	"github.com/resqnet/incident-server/internal/store"
)

type NotificationServiceSuite struct {
	suite.Suite
	users   *store.InMemoryUserDirectory
	sink    *notify.MemorySink
	mail    *mailer.MemoryMailer
	service *NotificationService
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.users = store.NewInMemoryUserDirectory()
	s.sink = notify.NewMemorySink()
	s.mail = mailer.NewMemoryMailer()
	s.service = NewNotificationService(s.users, s.sink, s.mail, zap.NewNop().Sugar())
}

func (s *NotificationServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *NotificationServiceSuite) saveUser(id string, location *models.Point, active bool) {
	s.Require().NoError(s.users.Save(context.Background(), models.User{
		ID: id, Name: id, Email: id + "@example.com",
		Role: models.RoleUser, Active: active, Location: location,
	}))
}

func (s *NotificationServiceSuite) report() models.Report {
	return models.Report{
		ID:         "rep-1",
		Title:      "Fallen tree",
		Location:   models.Point{Longitude: -75.68, Latitude: 4.53},
		Categories: []string{"cat-env"},
		OwnerID:    "author",
		Status:     models.StatusPending,
		Date:       time.Now(),
	}
}

func (s *NotificationServiceSuite) TestNotifyNearby() {
	ctx := context.Background()

	s.Run("users inside the radius get the payload with its distance", func() {
		s.saveUser("author", &models.Point{Longitude: -75.68, Latitude: 4.53}, true)
		s.saveUser("close", &models.Point{Longitude: -75.6805, Latitude: 4.5335}, true)

		s.service.NotifyNearby(ctx, s.report(), "author")

		deliveries := s.sink.ForUser("close")
		s.Require().Len(deliveries, 1)
		s.Equal(notify.ChannelNearbyReports, deliveries[0].Channel)

		payload, ok := deliveries[0].Payload.(models.NearbyReportNotification)
		s.Require().True(ok)
		s.Equal("rep-1", payload.ReportID)
		s.Equal("Fallen tree", payload.Title)
		s.Greater(payload.DistanceKm, 0.0)
		s.Less(payload.DistanceKm, 1.0)
	})

	s.Run("the author never notifies themselves", func() {
		s.saveUser("author", &models.Point{Longitude: -75.68, Latitude: 4.53}, true)

		s.service.NotifyNearby(ctx, s.report(), "author")
		s.Empty(s.sink.ForUser("author"))
	})

	s.Run("users outside the radius are skipped", func() {
		// Medellin is well over 10 km from the report.
		s.saveUser("far", &models.Point{Longitude: -75.5636, Latitude: 6.2518}, true)

		s.service.NotifyNearby(ctx, s.report(), "author")
		s.Empty(s.sink.ForUser("far"))
	})

	s.Run("users without a location are skipped", func() {
		s.saveUser("nowhere", nil, true)

		s.service.NotifyNearby(ctx, s.report(), "author")
		s.Empty(s.sink.ForUser("nowhere"))
	})

	s.Run("inactive users are skipped", func() {
		s.saveUser("gone", &models.Point{Longitude: -75.68, Latitude: 4.53}, false)

		s.service.NotifyNearby(ctx, s.report(), "author")
		s.Empty(s.sink.ForUser("gone"))
	})

	s.Run("one failing recipient does not block the others", func() {
		s.saveUser("broken", &models.Point{Longitude: -75.68, Latitude: 4.53}, true)
		s.saveUser("healthy", &models.Point{Longitude: -75.681, Latitude: 4.531}, true)
		s.sink.FailFor["broken"] = errors.New("connection reset")

		s.service.NotifyNearby(ctx, s.report(), "author")

		s.Empty(s.sink.ForUser("broken"))
		s.Len(s.sink.ForUser("healthy"), 1)
	})
}

func (s *NotificationServiceSuite) TestNotifyOwner() {
	ctx := context.Background()
	report := s.report()

	s.Run("delivers the status change on the owner's channel", func() {
		s.service.NotifyOwner(ctx, report, models.StatusPending, models.StatusResolved, false)

		deliveries := s.sink.ForUser("author")
		s.Require().Len(deliveries, 1)
		s.Equal(notify.ChannelStatusUpdates, deliveries[0].Channel)

		msg, ok := deliveries[0].Payload.(models.StatusChangeMessage)
		s.Require().True(ok)
		s.Equal(models.StatusPending, msg.OldStatus)
		s.Equal(models.StatusResolved, msg.NewStatus)
		s.NotContains(msg.Message, "administrator")
	})

	s.Run("admin verification is annotated", func() {
		s.service.NotifyOwner(ctx, report, models.StatusPending, models.StatusVerified, true)

		deliveries := s.sink.ForUser("author")
		msg := deliveries[len(deliveries)-1].Payload.(models.StatusChangeMessage)
		s.Contains(msg.Message, "verified by administrator")
	})

	s.Run("sink failure is swallowed", func() {
		s.sink.FailFor["author"] = errors.New("hub shut down")
		defer delete(s.sink.FailFor, "author")

		s.NotPanics(func() {
			s.service.NotifyOwner(ctx, report, models.StatusPending, models.StatusVerified, true)
		})
	})
}

func (s *NotificationServiceSuite) TestNotifyRejection() {
	ctx := context.Background()

	s.Run("mails the owner and pushes in-app", func() {
		s.saveUser("author", nil, true)

		s.service.NotifyRejection(ctx, "author", "rep-1", "location is outside the coverage area")

		messages := s.mail.Messages()
		s.Require().Len(messages, 1)
		s.Equal("author@example.com", messages[0].To)
		s.Equal("Your report has been rejected", messages[0].Subject)
		s.Contains(messages[0].Body, "location is outside the coverage area")
		s.Contains(messages[0].Body, "5 days")

		inApp := s.sink.ForUser("author")
		s.Require().Len(inApp, 1)
		s.Equal(notify.ChannelReportRejections, inApp[0].Channel)
	})

	s.Run("unknown owner skips the mail but does not panic", func() {
		before := len(s.mail.Messages())
		s.NotPanics(func() {
			s.service.NotifyRejection(ctx, "ghost", "rep-1", "whatever")
		})
		s.Len(s.mail.Messages(), before)
	})

	s.Run("mail failure still delivers in-app", func() {
		s.saveUser("author", nil, true)
		s.mail.Err = errors.New("relay refused")
		defer func() { s.mail.Err = nil }()

		s.service.NotifyRejection(ctx, "author", "rep-1", "blurry")
		s.Len(s.sink.ForUser("author"), 1)
	})
}
