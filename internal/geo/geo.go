// Package geo provides coordinate math shared by the AQI aggregation path.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371

// DistanceKm returns the haversine great-circle distance in kilometers
// between two coordinate pairs.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// CellKey quantizes a coordinate pair to two decimal places (~1.1km) and
// formats it as a cache key. Nearby queries intentionally collide so they
// share a cache entry.
func CellKey(lat, lng float64) string {
	return fmt.Sprintf("aqi_%.2f_%.2f", roundTo(lat, 2), roundTo(lng, 2))
}

// ValidateCoordinates checks that a coordinate pair is within valid ranges.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", lng)
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
