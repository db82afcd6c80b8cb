package geo

import (
	"math"

	"github.com/umahmood/haversine"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371

// Coordinate is a point on the globe in decimal degrees.
// Lat is expected in [-90, 90] and Lon in [-180, 180].
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Distance returns the great-circle distance between a and b in kilometres,
// rounded to two decimal places (half away from zero).
func Distance(a, b Coordinate) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lon},
		haversine.Coord{Lat: b.Lat, Lon: b.Lon},
	)
	return roundKm(km)
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// Box is a latitude/longitude rectangle in degrees.
type Box struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// BoundingBox returns the smallest lat/lon rectangle holding every point within
// radiusKm of center. ok is false when no such rectangle exists without wrapping,
// i.e. the circle reaches a pole or crosses the antimeridian.
func BoundingBox(center Coordinate, radiusKm float64) (Box, bool) {
	if radiusKm < 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return Box{}, false
	}

	delta := radiusKm / EarthRadiusKm
	if delta >= math.Pi {
		return Box{}, false
	}

	lat := toRadians(center.Lat)
	lon := toRadians(center.Lon)

	minLat, maxLat := lat-delta, lat+delta
	if maxLat >= math.Pi/2 || minLat <= -math.Pi/2 {
		return Box{}, false
	}

	// Below the poles sin(delta) < cos(lat), so Asin stays in range.
	dLon := math.Asin(math.Sin(delta) / math.Cos(lat))
	minLon, maxLon := lon-dLon, lon+dLon
	if minLon < -math.Pi || maxLon > math.Pi {
		return Box{}, false
	}

	return Box{
		MinLat: toDegrees(minLat),
		MinLon: toDegrees(minLon),
		MaxLat: toDegrees(maxLat),
		MaxLon: toDegrees(maxLon),
	}, true
}

// Contains reports whether c lies inside the box, edges included.
func (b Box) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
