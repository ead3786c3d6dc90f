package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/resqnet/incident-server/internal/models"
)

func TestHaversineKm(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.Zero(t, HaversineKm(4.53, -75.68, 4.53, -75.68))
	})

	t.Run("close points stay under a kilometer", func(t *testing.T) {
		d := HaversineKm(4.53, -75.68, 4.5335, -75.6805)
		assert.Greater(t, d, 0.0)
		assert.Less(t, d, 1.0)
	})

	t.Run("known city pair", func(t *testing.T) {
		// Bogota to Medellin, roughly 245 km great-circle.
		d := HaversineKm(4.711, -74.0721, 6.2442, -75.5812)
		assert.InDelta(t, 245, d, 10)
	})

	t.Run("symmetry", func(t *testing.T) {
		a := HaversineKm(4.53, -75.68, 6.2442, -75.5812)
		b := HaversineKm(6.2442, -75.5812, 4.53, -75.68)
		assert.InDelta(t, a, b, 1e-9)
	})
}

func TestDistanceKm(t *testing.T) {
	report := models.Point{Longitude: -75.68, Latitude: 4.53}
	user := models.Point{Longitude: -75.6805, Latitude: 4.5335}
	assert.Less(t, DistanceKm(report, user), 1.0)
}
