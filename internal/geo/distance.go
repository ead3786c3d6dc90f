// Package geo provides great-circle distance math and the Redis-backed
// spatial index used for proximity queries over user locations.
package geo

import (
	"math"

	"github.com/resqnet/incident-server/internal/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// points given as (latitude, longitude) pairs in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	latDelta := toRadians(lat2 - lat1)
	lonDelta := toRadians(lon2 - lon1)

	a := math.Sin(latDelta/2)*math.Sin(latDelta/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(lonDelta/2)*math.Sin(lonDelta/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceKm is HaversineKm over two Points.
func DistanceKm(a, b models.Point) float64 {
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
