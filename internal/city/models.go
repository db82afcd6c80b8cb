package city

import (
	"slices"

	"github.com/i474232898/city-area/internal/geo"
)

// City is a single immutable record of the dataset.
type City struct {
	ID        string   `json:"id"`
	IsActive  bool     `json:"isActive"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Tags      []string `json:"tags"`
}

// Coordinate returns the position of the city.
func (c City) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: c.Latitude, Lon: c.Longitude}
}

// HasTag reports whether tag is one of the city's tags (exact match).
func (c City) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}
