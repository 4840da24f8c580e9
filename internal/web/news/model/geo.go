package model

import (
	"math"
)

// Point GeoJSON point, coordinates are [lng, lat]
type Point struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint create a GeoJSON point
func NewPoint(lng, lat float64) *Point {
	return &Point{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Lng longitude
func (p *Point) Lng() float64 {
	return p.Coordinates[0]
}

// Lat latitude
func (p *Point) Lat() float64 {
	return p.Coordinates[1]
}

// Validate checks the point shape and ranges.
func (p *Point) Validate(field string) error {
	if p == nil {
		return Invalid(field, "is required")
	}
	if p.Type != "Point" {
		return Invalid(field, "type must be Point")
	}
	if len(p.Coordinates) != 2 {
		return Invalid(field, "coordinates must be [lng, lat]")
	}
	return ValidateLngLat(field, p.Coordinates[0], p.Coordinates[1])
}

// ValidateLngLat checks lng in [-180,180] and lat in [-90,90].
func ValidateLngLat(field string, lng, lat float64) error {
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Invalid(field, "longitude %v out of range", lng)
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Invalid(field, "latitude %v out of range", lat)
	}
	return nil
}

// Polygon GeoJSON polygon, the first ring is the outer boundary
type Polygon struct {
	Type        string        `bson:"type" json:"type"`
	Coordinates [][][]float64 `bson:"coordinates" json:"coordinates"`
}

// Validate checks every ring is closed with at least four valid positions.
func (p *Polygon) Validate(field string) error {
	if p == nil {
		return nil
	}
	if p.Type != "Polygon" {
		return Invalid(field, "type must be Polygon")
	}
	if len(p.Coordinates) == 0 {
		return Invalid(field, "polygon has no rings")
	}

	for i, ring := range p.Coordinates {
		if len(ring) < 4 {
			return Invalid(field, "ring %d needs at least 4 positions", i)
		}
		for _, pos := range ring {
			if len(pos) != 2 {
				return Invalid(field, "ring %d has a position without [lng, lat]", i)
			}
			if err := ValidateLngLat(field, pos[0], pos[1]); err != nil {
				return err
			}
		}

		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			return Invalid(field, "ring %d is not closed", i)
		}
	}

	return nil
}
