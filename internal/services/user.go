package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/store"
)

// RegisterUserRequest carries the fields needed to create an account.
type RegisterUserRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Location *models.Point `json:"location,omitempty"`
}

// UserService manages accounts. Deactivation is the only producer of the
// ANONYMOUS report state.
type UserService struct {
	users   store.UserDirectory
	reports store.ReportStore
	logger  *zap.SugaredLogger
}

func NewUserService(users store.UserDirectory, reports store.ReportStore, logger *zap.SugaredLogger) *UserService {
	return &UserService{users: users, reports: reports, logger: logger}
}

// Register creates an active account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (models.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.User{}, apperrors.Validationf("name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return models.User{}, apperrors.Validationf("email is required")
	}
	if len(req.Password) < 8 {
		return models.User{}, apperrors.Validationf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Location:     req.Location,
		Active:       true,
	}

	if err := s.users.Save(ctx, user); err != nil {
		return models.User{}, apperrors.Wrap(apperrors.CodeInternal, "persist user", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID)
	return user, nil
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperrors.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return models.User{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	return user, nil
}

// UpdateLocation moves the user's position, which also refreshes the spatial
// index through the directory.
func (s *UserService) UpdateLocation(ctx context.Context, userID string, location models.Point) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Location = &location
	if err := s.users.Save(ctx, user); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "persist user", err)
	}
	return nil
}

// Deactivate marks the account inactive and anonymizes every report it owns:
// the owner id becomes the sentinel and the status is forced to ANONYMOUS,
// which is terminal. Calling it twice is a no-op.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Active {
		s.logger.Warnw("User already deactivated", "user_id", userID)
		return nil
	}

	now := time.Now()
	user.Active = false
	user.DeactivationDate = &now
	if err := s.users.Save(ctx, user); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "persist user", err)
	}

	reports, err := s.reports.FindAllByIDs(ctx, user.Reports)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "load user reports", err)
	}

	anonymized := 0
	for _, report := range reports {
		if report.Anonymous {
			continue
		}
		report.Anonymous = true
		report.Status = models.StatusAnonymous
		report.OwnerID = models.AnonymousOwner
		if err := s.reports.Save(ctx, report); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "anonymize report", err)
		}
		anonymized++
	}

	s.logger.Infow("User deactivated", "user_id", userID, "reports_anonymized", anonymized)
	return nil
}
