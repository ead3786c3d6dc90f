package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/apperrors"
	"github.com/resqnet/incident-server/internal/models"
	"github.com/resqnet/incident-server/internal/store"
)

// CategoryService manages the report category catalog. Categories are
// soft-deleted; an inactive category fails existence checks but keeps
// historical reports readable.
type CategoryService struct {
	catalog store.CategoryCatalog
	logger  *zap.SugaredLogger
}

func NewCategoryService(catalog store.CategoryCatalog, logger *zap.SugaredLogger) *CategoryService {
	return &CategoryService{catalog: catalog, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, name string) (models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return models.Category{}, apperrors.Validationf("category name is required")
	}

	category := models.Category{ID: uuid.NewString(), Name: name, Active: true}
	if err := s.catalog.Save(ctx, category); err != nil {
		return models.Category{}, apperrors.Wrap(apperrors.CodeInternal, "persist category", err)
	}

	s.logger.Infow("Category created", "category_id", category.ID, "name", name)
	return category, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id string) (models.Category, error) {
	category, err := s.catalog.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Category{}, apperrors.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return models.Category{}, apperrors.Wrap(apperrors.CodeInternal, "load category", err)
	}
	return category, nil
}

func (s *CategoryService) ListActive(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Deactivate(ctx context.Context, id string) error {
	err := s.catalog.Deactivate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "deactivate category", err)
	}

	s.logger.Infow("Category deactivated", "category_id", id)
	return nil
}
