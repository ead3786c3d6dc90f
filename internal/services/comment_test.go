package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/mailer"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/notify"
	"github.com/resqnet/incident-server/internal/store"
)

type CommentServiceSuite struct {
	suite.Suite
	comments *store.InMemoryCommentStore
	reports  *store.InMemoryReportStore
	users    *store.InMemoryUserDirectory
	sink     *notify.MemorySink
	mail     *mailer.MemoryMailer
	service  *CommentService
}

func TestCommentServiceSuite(t *testing.T) {
	suite.Run(t, new(CommentServiceSuite))
}

func (s *CommentServiceSuite) SetupTest() {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	s.comments = store.NewInMemoryCommentStore()
	s.reports = store.NewInMemoryReportStore()
	s.users = store.NewInMemoryUserDirectory()
	s.sink = notify.NewMemorySink()
	s.mail = mailer.NewMemoryMailer()

	notifier := NewNotificationService(s.users, s.sink, s.mail, logger)
	s.service = NewCommentService(s.comments, s.reports, s.users, notifier, logger)

	s.Require().NoError(s.users.Save(ctx, models.User{
		ID: "owner-1", Name: "Ana", Email: "ana@example.com", Role: models.RoleUser, Active: true,
	}))
	s.Require().NoError(s.users.Save(ctx, models.User{
		ID: "commenter-1", Name: "Ben", Email: "ben@example.com", Role: models.RoleUser, Active: true,
	}))
	s.Require().NoError(s.reports.Save(ctx, models.Report{
		ID: "rep-1", Title: "Pothole on 5th", OwnerID: "owner-1",
		Status: models.StatusPending, Date: time.Now(),
	}))
}

func (s *CommentServiceSuite) TestAdd() {
	ctx := context.Background()

	s.Run("persists and returns the comment", func() {
		comment, err := s.service.Add(ctx, "rep-1", "I saw this too, it is getting worse", "commenter-1")
		s.Require().NoError(err)
		s.NotEmpty(comment.ID)
		s.Equal("rep-1", comment.ReportID)
		s.Equal("commenter-1", comment.AuthorID)

		listed, err := s.service.ListByReport(ctx, "rep-1")
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal(comment.ID, listed[0].ID)
	})

	s.Run("notifies the report owner in-app and by mail", func() {
		_, err := s.service.Add(ctx, "rep-1", "Any update on this?", "commenter-1")
		s.Require().NoError(err)

		inApp := s.sink.ForUser("owner-1")
		s.Require().NotEmpty(inApp)
		last := inApp[len(inApp)-1]
		s.Equal(notify.ChannelReportComments, last.Channel)

		payload, ok := last.Payload.(models.CommentNotification)
		s.Require().True(ok)
		s.Equal("rep-1", payload.ReportID)
		s.Equal("commenter-1", payload.AuthorID)
		s.Contains(payload.Message, "Ben")

		messages := s.mail.Messages()
		s.Require().NotEmpty(messages)
		s.Equal("ana@example.com", messages[len(messages)-1].To)
		s.Equal("New comment on your report", messages[len(messages)-1].Subject)
	})

	s.Run("long content is truncated in the mail preview", func() {
		long := strings.Repeat("x", 200)
		_, err := s.service.Add(ctx, "rep-1", long, "commenter-1")
		s.Require().NoError(err)

		messages := s.mail.Messages()
		s.Require().NotEmpty(messages)
		body := messages[len(messages)-1].Body
		s.Contains(body, strings.Repeat("x", 50)+"...")
		s.NotContains(body, strings.Repeat("x", 51))
	})

	s.Run("blank content is a validation error", func() {
		_, err := s.service.Add(ctx, "rep-1", "   ", "commenter-1")
		s.True(apperrors.Is(err, apperrors.CodeValidation))
	})

	s.Run("oversized content is a validation error", func() {
		_, err := s.service.Add(ctx, "rep-1", strings.Repeat("x", MaxCommentLength+1), "commenter-1")
		s.True(apperrors.Is(err, apperrors.CodeValidation))
	})

	s.Run("missing report is not found", func() {
		_, err := s.service.Add(ctx, "ghost", "hello", "commenter-1")
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})

	s.Run("missing author is not found", func() {
		_, err := s.service.Add(ctx, "rep-1", "hello", "ghost")
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})

	s.Run("anonymized report accepts comments without notifying anyone", func() {
		s.Require().NoError(s.reports.Save(ctx, models.Report{
			ID: "rep-anon", Title: "Old report", OwnerID: models.AnonymousOwner,
			Status: models.StatusAnonymous, Anonymous: true, Date: time.Now(),
		}))
		mailsBefore := len(s.mail.Messages())

		_, err := s.service.Add(ctx, "rep-anon", "context for posterity", "commenter-1")
		s.Require().NoError(err)
		s.Len(s.mail.Messages(), mailsBefore)
		s.Empty(s.sink.ForUser(models.AnonymousOwner))
	})
}

func (s *CommentServiceSuite) TestListings() {
	ctx := context.Background()

	s.Run("comments come back in chronological order", func() {
		for _, text := range []string{"first", "second", "third"} {
			_, err := s.service.Add(ctx, "rep-1", text, "commenter-1")
			s.Require().NoError(err)
			time.Sleep(time.Millisecond)
		}

		listed, err := s.service.ListByReport(ctx, "rep-1")
		s.Require().NoError(err)
		s.Require().Len(listed, 3)
		s.Equal("first", listed[0].Content)
		s.Equal("third", listed[2].Content)
	})

	s.Run("ListByUser returns only that author's comments", func() {
		_, err := s.service.Add(ctx, "rep-1", "from the owner", "owner-1")
		s.Require().NoError(err)

		mine, err := s.service.ListByUser(ctx, "owner-1")
		s.Require().NoError(err)
		s.Require().Len(mine, 1)
		s.Equal("from the owner", mine[0].Content)
	})

	s.Run("missing report or user is not found", func() {
		_, err := s.service.ListByReport(ctx, "ghost")
		s.True(apperrors.Is(err, apperrors.CodeNotFound))

		_, err = s.service.ListByUser(ctx, "ghost")
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})
}
