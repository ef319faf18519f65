package location

import (
	"fmt"
	"math"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// DefaultTolerance is the coordinate delta in decimal degrees under which two
// points count as the same place (~1.1 km at the equator).
const DefaultTolerance = 0.01

// SamePlace reports whether two coordinate pairs describe the same place
// within the given tolerance. Exact equality is tested first as a fast path
// for round-tripped values. The function is pure and total; the only failure
// mode is non-finite input.
func SamePlace(a, b types.Coordinates, tolerance float64) (bool, error) {
	for _, v := range []float64{a.Lat, a.Lon, b.Lat, b.Lon, tolerance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false, fmt.Errorf("%w: non-finite value in comparison", types.ErrInvalidCoordinate)
		}
	}

	if a.Lat == b.Lat && a.Lon == b.Lon {
		return true, nil
	}

	return math.Abs(a.Lat-b.Lat) < tolerance && math.Abs(a.Lon-b.Lon) < tolerance, nil
}
