package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/resqnet/incident-server/internal/geo"
	"github.com/resqnet/incident-server/internal/models"
)

// In-memory stores back the test suites and local development. They
// intentionally favor clarity over performance.
type InMemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]models.Report
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{reports: make(map[string]models.Report)}
}

func (s *InMemoryReportStore) Save(_ context.Context, report models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	return nil
}

func (s *InMemoryReportStore) FindByID(_ context.Context, id string) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if report, ok := s.reports[id]; ok {
		return report, nil
	}
	return models.Report{}, ErrNotFound
}

func (s *InMemoryReportStore) FindAllByIDs(_ context.Context, ids []string) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reports := make([]models.Report, 0, len(ids))
	for _, id := range ids {
		if report, ok := s.reports[id]; ok {
			reports = append(reports, report)
		}
	}
	return reports, nil
}

func (s *InMemoryReportStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

func (s *InMemoryReportStore) Query(_ context.Context, filter models.ReportFilter) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Report
	for _, report := range s.reports {
		if MatchesFilter(report, filter) {
			matched = append(matched, report)
		}
	}
	return matched, nil
}

// MatchesFilter applies the conjunctive filter predicates to one report.
// Shared with the Postgres store, which narrows in SQL where it can and
// falls back to this for the radius predicate.
func MatchesFilter(report models.Report, filter models.ReportFilter) bool {
	if len(filter.Categories) > 0 && !overlaps(report.Categories, filter.Categories) {
		return false
	}
	if filter.Status != nil && !strings.EqualFold(string(report.Status), string(*filter.Status)) {
		return false
	}
	if filter.StartDate != nil && report.Date.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && report.Date.After(*filter.EndDate) {
		return false
	}
	if filter.Latitude != nil && filter.Longitude != nil && filter.RadiusKm != nil {
		distance := geo.HaversineKm(report.Location.Latitude, report.Location.Longitude, *filter.Latitude, *filter.Longitude)
		if distance > *filter.RadiusKm {
			return false
		}
	}
	return true
}

func overlaps(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

type InMemoryUserDirectory struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewInMemoryUserDirectory() *InMemoryUserDirectory {
	return &InMemoryUserDirectory{users: make(map[string]models.User)}
}

func (d *InMemoryUserDirectory) Save(_ context.Context, user models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
	return nil
}

func (d *InMemoryUserDirectory) FindByID(_ context.Context, id string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if user, ok := d.users[id]; ok {
		return user, nil
	}
	return models.User{}, ErrNotFound
}

func (d *InMemoryUserDirectory) FindNear(_ context.Context, lon, lat, radiusMeters float64, excludeID string) ([]models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var nearby []models.User
	for _, user := range d.users {
		if user.ID == excludeID || user.Location == nil || !user.Active {
			continue
		}
		distance := geo.HaversineKm(lat, lon, user.Location.Latitude, user.Location.Longitude)
		if distance*1000 <= radiusMeters {
			nearby = append(nearby, user)
		}
	}
	return nearby, nil
}

type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]models.Comment
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *InMemoryCommentStore) Save(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = comment
	return nil
}

func (s *InMemoryCommentStore) ListByReport(_ context.Context, reportID string) ([]models.Comment, error) {
	return s.list(func(c models.Comment) bool { return c.ReportID == reportID }), nil
}

func (s *InMemoryCommentStore) ListByUser(_ context.Context, userID string) ([]models.Comment, error) {
	return s.list(func(c models.Comment) bool { return c.AuthorID == userID }), nil
}

func (s *InMemoryCommentStore) list(match func(models.Comment) bool) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, c := range s.comments {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

type InMemoryCategoryCatalog struct {
	mu         sync.RWMutex
	categories map[string]models.Category
}

func NewInMemoryCategoryCatalog() *InMemoryCategoryCatalog {
	return &InMemoryCategoryCatalog{categories: make(map[string]models.Category)}
}

func (c *InMemoryCategoryCatalog) Save(_ context.Context, category models.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[category.ID] = category
	return nil
}

func (c *InMemoryCategoryCatalog) FindByID(_ context.Context, id string) (models.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if category, ok := c.categories[id]; ok {
		return category, nil
	}
	return models.Category{}, ErrNotFound
}

func (c *InMemoryCategoryCatalog) Exists(_ context.Context, id string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	category, ok := c.categories[id]
	return ok && category.Active, nil
}

func (c *InMemoryCategoryCatalog) ListActive(_ context.Context) ([]models.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var active []models.Category
	for _, category := range c.categories {
		if category.Active {
			active = append(active, category)
		}
	}
	return active, nil
}

func (c *InMemoryCategoryCatalog) Deactivate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	category, ok := c.categories[id]
	if !ok {
		return ErrNotFound
	}
	category.Active = false
	c.categories[id] = category
	return nil
}
