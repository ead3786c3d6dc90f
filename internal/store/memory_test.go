package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqnet/incident-server/internal/models"
)

func seedUsers(t *testing.T) *InMemoryUserDirectory {
	t.Helper()
	ctx := context.Background()
	d := NewInMemoryUserDirectory()

	users := []models.User{
		{ID: "author", Active: true, Location: &models.Point{Longitude: -75.68, Latitude: 4.53}},
		{ID: "close", Active: true, Location: &models.Point{Longitude: -75.6805, Latitude: 4.5335}},
		{ID: "far", Active: true, Location: &models.Point{Longitude: -75.5636, Latitude: 6.2518}},
		{ID: "inactive", Active: false, Location: &models.Point{Longitude: -75.68, Latitude: 4.53}},
		{ID: "nowhere", Active: true},
	}
	for _, u := range users {
		require.NoError(t, d.Save(ctx, u))
	}
	return d
}

func TestInMemoryUserDirectoryFindNear(t *testing.T) {
	ctx := context.Background()
	d := seedUsers(t)

	t.Run("returns active located users inside the radius", func(t *testing.T) {
		nearby, err := d.FindNear(ctx, -75.68, 4.53, 10_000, "author")
		require.NoError(t, err)
		require.Len(t, nearby, 1)
		assert.Equal(t, "close", nearby[0].ID)
	})

	t.Run("excluded id is never returned even when located at the center", func(t *testing.T) {
		nearby, err := d.FindNear(ctx, -75.68, 4.53, 10_000, "close")
		require.NoError(t, err)
		require.Len(t, nearby, 1)
		assert.Equal(t, "author", nearby[0].ID)
	})

	t.Run("a tight radius matches nobody", func(t *testing.T) {
		nearby, err := d.FindNear(ctx, -75.0, 4.0, 1, "author")
		require.NoError(t, err)
		assert.Empty(t, nearby)
	})

	t.Run("a huge radius still skips inactive and unlocated users", func(t *testing.T) {
		nearby, err := d.FindNear(ctx, -75.68, 4.53, 1_000_000, "author")
		require.NoError(t, err)

		ids := make([]string, 0, len(nearby))
		for _, u := range nearby {
			ids = append(ids, u.ID)
		}
		assert.ElementsMatch(t, []string{"close", "far"}, ids)
	})
}

func TestInMemoryReportStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryReportStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reports := []models.Report{
		{
			ID: "pothole", Status: models.StatusPending, Categories: []string{"roads"},
			Location: models.Point{Longitude: -75.68, Latitude: 4.53}, Date: base,
		},
		{
			ID: "tree", Status: models.StatusVerified, Categories: []string{"environment"},
			Location: models.Point{Longitude: -75.6805, Latitude: 4.5335}, Date: base.AddDate(0, 0, 10),
		},
		{
			ID: "flood", Status: models.StatusVerified, Categories: []string{"environment", "roads"},
			Location: models.Point{Longitude: -75.5636, Latitude: 6.2518}, Date: base.AddDate(0, 0, 20),
		},
	}
	for _, r := range reports {
		require.NoError(t, s.Save(ctx, r))
	}

	ids := func(rs []models.Report) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	t.Run("empty filter matches everything", func(t *testing.T) {
		got, err := s.Query(ctx, models.ReportFilter{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"pothole", "tree", "flood"}, ids(got))
	})

	t.Run("status is matched case-insensitively", func(t *testing.T) {
		verified := models.ReportStatus("verified")
		got, err := s.Query(ctx, models.ReportFilter{Status: &verified})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"tree", "flood"}, ids(got))
	})

	t.Run("any shared category matches", func(t *testing.T) {
		got, err := s.Query(ctx, models.ReportFilter{Categories: []string{"roads"}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"pothole", "flood"}, ids(got))
	})

	t.Run("date range bounds are inclusive of interior points", func(t *testing.T) {
		start := base.AddDate(0, 0, 5)
		end := base.AddDate(0, 0, 15)
		got, err := s.Query(ctx, models.ReportFilter{StartDate: &start, EndDate: &end})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"tree"}, ids(got))
	})

	t.Run("radius keeps only reports near the center", func(t *testing.T) {
		lat, lon, radius := 4.53, -75.68, 5.0
		got, err := s.Query(ctx, models.ReportFilter{Latitude: &lat, Longitude: &lon, RadiusKm: &radius})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"pothole", "tree"}, ids(got))
	})

	t.Run("predicates compose conjunctively", func(t *testing.T) {
		verified := models.StatusVerified
		lat, lon, radius := 4.53, -75.68, 5.0
		got, err := s.Query(ctx, models.ReportFilter{
			Status:     &verified,
			Categories: []string{"environment"},
			Latitude:   &lat,
			Longitude:  &lon,
			RadiusKm:   &radius,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"tree"}, ids(got))
	})

	t.Run("a partial geo filter is ignored", func(t *testing.T) {
		lat := 4.53
		got, err := s.Query(ctx, models.ReportFilter{Latitude: &lat})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestInMemoryReportStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryReportStore()

	report := models.Report{ID: "rep-1", Title: "Pothole", Status: models.StatusPending, Date: time.Now()}
	require.NoError(t, s.Save(ctx, report))

	got, err := s.FindByID(ctx, "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "Pothole", got.Title)

	_, err = s.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	batch, err := s.FindAllByIDs(ctx, []string{"rep-1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, batch, 1)

	require.NoError(t, s.DeleteByID(ctx, "rep-1"))
	assert.ErrorIs(t, s.DeleteByID(ctx, "rep-1"), ErrNotFound)
}

func TestInMemoryCategoryCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCategoryCatalog()

	require.NoError(t, c.Save(ctx, models.Category{ID: "roads", Name: "Roads", Active: true}))
	require.NoError(t, c.Save(ctx, models.Category{ID: "legacy", Name: "Legacy", Active: false}))

	t.Run("existence only considers active categories", func(t *testing.T) {
		ok, err := c.Exists(ctx, "roads")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Exists(ctx, "legacy")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.Exists(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("listing skips inactive categories", func(t *testing.T) {
		active, err := c.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "roads", active[0].ID)
	})

	t.Run("deactivation removes a category from existence checks", func(t *testing.T) {
		require.NoError(t, c.Deactivate(ctx, "roads"))

		ok, err := c.Exists(ctx, "roads")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, c.Deactivate(ctx, "ghost"), ErrNotFound)
	})
}
