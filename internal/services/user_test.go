package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/store"
)

type UserServiceSuite struct {
	suite.Suite
	users   *store.InMemoryUserDirectory
	reports *store.InMemoryReportStore
	service *UserService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.users = store.NewInMemoryUserDirectory()
	s.reports = store.NewInMemoryReportStore()
	s.service = NewUserService(s.users, s.reports, zap.NewNop().Sugar())
}

func (s *UserServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("creates an active citizen account", func() {
		user, err := s.service.Register(ctx, RegisterUserRequest{
			Name:     "Ana",
			Email:    "ana@example.com",
			Password: "correct horse",
			Location: &models.Point{Longitude: -75.68, Latitude: 4.53},
		})
		s.Require().NoError(err)
		s.NotEmpty(user.ID)
		s.Equal(models.RoleUser, user.Role)
		s.True(user.Active)
		s.NotNil(user.Location)

		s.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

		stored, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("ana@example.com", stored.Email)
	})

	s.Run("rejects short passwords", func() {
		_, err := s.service.Register(ctx, RegisterUserRequest{Name: "Ana", Email: "a@b.c", Password: "short"})
		s.True(apperrors.Is(err, apperrors.CodeValidation))
	})

	s.Run("rejects blank name and email", func() {
		_, err := s.service.Register(ctx, RegisterUserRequest{Name: " ", Email: "a@b.c", Password: "long enough"})
		s.True(apperrors.Is(err, apperrors.CodeValidation))

		_, err = s.service.Register(ctx, RegisterUserRequest{Name: "Ana", Email: "", Password: "long enough"})
		s.True(apperrors.Is(err, apperrors.CodeValidation))
	})
}

func (s *UserServiceSuite) TestUpdateLocation() {
	ctx := context.Background()

	user, err := s.service.Register(ctx, RegisterUserRequest{Name: "Ana", Email: "a@b.c", Password: "long enough"})
	s.Require().NoError(err)

	s.Run("sets the position", func() {
		err := s.service.UpdateLocation(ctx, user.ID, models.Point{Longitude: -75.7, Latitude: 4.6})
		s.Require().NoError(err)

		stored, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.Location)
		s.Equal(-75.7, stored.Location.Longitude)
		s.Equal(4.6, stored.Location.Latitude)
	})

	s.Run("unknown user is not found", func() {
		err := s.service.UpdateLocation(ctx, "ghost", models.Point{})
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})
}

func (s *UserServiceSuite) TestDeactivate() {
	ctx := context.Background()

	seed := func() models.User {
		user, err := s.service.Register(ctx, RegisterUserRequest{Name: "Ana", Email: "a@b.c", Password: "long enough"})
		s.Require().NoError(err)

		for _, id := range []string{"rep-1", "rep-2"} {
			s.Require().NoError(s.reports.Save(ctx, models.Report{
				ID: id, Title: id, OwnerID: user.ID,
				Status: models.StatusPending, Date: time.Now(),
			}))
			user.Reports = append(user.Reports, id)
		}
		s.Require().NoError(s.users.Save(ctx, user))
		return user
	}

	s.Run("marks inactive and anonymizes every owned report", func() {
		user := seed()
		s.Require().NoError(s.service.Deactivate(ctx, user.ID))

		stored, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.False(stored.Active)
		s.NotNil(stored.DeactivationDate)

		for _, id := range []string{"rep-1", "rep-2"} {
			report, err := s.reports.FindByID(ctx, id)
			s.Require().NoError(err)
			s.True(report.Anonymous)
			s.Equal(models.StatusAnonymous, report.Status)
			s.Equal(models.AnonymousOwner, report.OwnerID)
		}
	})

	s.Run("second deactivation is a no-op", func() {
		user := seed()
		s.Require().NoError(s.service.Deactivate(ctx, user.ID))

		first, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)

		s.Require().NoError(s.service.Deactivate(ctx, user.ID))

		second, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(first.DeactivationDate, second.DeactivationDate)
	})

	s.Run("unknown user is not found", func() {
		err := s.service.Deactivate(ctx, "ghost")
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})
}
