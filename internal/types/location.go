package types

import (
	"fmt"
	"math"
	"time"
)

// Coordinates is a plain latitude/longitude pair in signed decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the pair is finite and within -90..90 / -180..180.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Location matches the locations table structure. It is always a detached
// value snapshot: nothing here holds a live transaction or pool handle, so a
// Location can be read safely long after the query that produced it.
type Location struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Country    string    `json:"country"`
	Region     *string   `json:"region,omitempty"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Coordinates returns the location's coordinate pair.
func (l Location) Coordinates() Coordinates {
	return Coordinates{Lat: l.Latitude, Lon: l.Longitude}
}

func (l Location) String() string {
	region := ""
	if l.Region != nil {
		region = *l.Region + " "
	}
	return fmt.Sprintf("%s, %s%s", l.Name, region, l.Country)
}

// CandidateLocation is a transient place returned by the city search endpoint.
// It is never persisted; it becomes a Location only if selected and resolved.
// Validated once on ingress with validator/v10.
type CandidateLocation struct {
	Name    string  `json:"name" validate:"required"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat" validate:"min=-90,max=90"`
	Lon     float64 `json:"lon" validate:"min=-180,max=180"`
}

func (c CandidateLocation) String() string {
	if c.Region == "" {
		return fmt.Sprintf("%s, %s", c.Name, c.Country)
	}
	return fmt.Sprintf("%s, %s, %s", c.Name, c.Region, c.Country)
}

// UpdateLocationParams carries partial updates for a location row.
// Nil fields are left untouched.
type UpdateLocationParams struct {
	Name       *string
	Country    *string
	Region     *string
	IsFavorite *bool
}
