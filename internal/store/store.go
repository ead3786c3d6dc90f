// Package store holds the persistence collaborators of the review workflow.
// Stores are interface-driven so the services stay testable and the
// in-memory, Postgres, and Redis-backed implementations remain swappable
// without touching business code.
package store

import (
	"context"

	"github.com/resqnet/incident-server/internal/models"
)

// ReportStore persists incident reports.
type ReportStore interface {
	Save(ctx context.Context, report models.Report) error
	FindByID(ctx context.Context, id string) (models.Report, error)
	FindAllByIDs(ctx context.Context, ids []string) ([]models.Report, error)
	DeleteByID(ctx context.Context, id string) error
	Query(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
}

// UserDirectory resolves users by id and by proximity to a point.
type UserDirectory interface {
	Save(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	// FindNear returns users within radiusMeters of (lon, lat), excluding
	// excludeID. Users without a known location are never returned.
	FindNear(ctx context.Context, lon, lat, radiusMeters float64, excludeID string) ([]models.User, error)
}

// CommentStore persists report comments.
type CommentStore interface {
	Save(ctx context.Context, comment models.Comment) error
	// ListByReport returns a report's comments in chronological order.
	ListByReport(ctx context.Context, reportID string) ([]models.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Comment, error)
}

// CategoryCatalog answers existence checks for report categories.
type CategoryCatalog interface {
	Save(ctx context.Context, category models.Category) error
	FindByID(ctx context.Context, id string) (models.Category, error)
	// Exists reports whether an active category with the id exists.
	Exists(ctx context.Context, id string) (bool, error)
	ListActive(ctx context.Context) ([]models.Category, error)
	Deactivate(ctx context.Context, id string) error
}
