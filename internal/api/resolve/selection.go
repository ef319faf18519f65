package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// The web front end round-trips a chosen candidate as a single form value of
// the shape "lat,lon,name,region,country". Region and country may be empty but
// the commas are positional; the place name itself never contains commas
// because the candidate list renders name, region and country separately.

var selectionValidate = validator.New()

type selectionTuple struct {
	Lat     float64 `validate:"min=-90,max=90"`
	Lon     float64 `validate:"min=-180,max=180"`
	Name    string  `validate:"required"`
	Region  string
	Country string
}

// ParseSelection decodes a web selection value into a candidate. Every
// failure mode wraps types.ErrInvalidSelection so handlers can map it to a
// 400 in one errors.Is check.
func ParseSelection(value string) (types.CandidateLocation, error) {
	parts := strings.SplitN(value, ",", 5)
	if len(parts) != 5 {
		return types.CandidateLocation{}, fmt.Errorf("%w: expected 5 comma-separated fields, got %d",
			types.ErrInvalidSelection, len(parts))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return types.CandidateLocation{}, fmt.Errorf("%w: bad latitude %q", types.ErrInvalidSelection, parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.CandidateLocation{}, fmt.Errorf("%w: bad longitude %q", types.ErrInvalidSelection, parts[1])
	}

	tuple := selectionTuple{
		Lat:     lat,
		Lon:     lon,
		Name:    strings.TrimSpace(parts[2]),
		Region:  strings.TrimSpace(parts[3]),
		Country: strings.TrimSpace(parts[4]),
	}
	if err := selectionValidate.Struct(tuple); err != nil {
		return types.CandidateLocation{}, fmt.Errorf("%w: %v", types.ErrInvalidSelection, err)
	}

	coords := types.Coordinates{Lat: tuple.Lat, Lon: tuple.Lon}
	if err := coords.Validate(); err != nil {
		return types.CandidateLocation{}, fmt.Errorf("%w: %v", types.ErrInvalidSelection, err)
	}

	return types.CandidateLocation{
		Name:    tuple.Name,
		Region:  tuple.Region,
		Country: tuple.Country,
		Lat:     tuple.Lat,
		Lon:     tuple.Lon,
	}, nil
}

// ResolveSelection persists a web-submitted candidate choice and returns a
// Resolved outcome carrying the stored location.
func (w *Workflow) ResolveSelection(ctx context.Context, value string, action types.ResolutionAction) (types.ResolutionOutcome, error) {
	cand, err := ParseSelection(value)
	if err != nil {
		return types.ResolutionOutcome{}, err
	}

	loc, err := w.locationSvc.ResolveCandidate(ctx, cand)
	if err != nil {
		return types.ResolutionOutcome{}, err
	}

	return types.ResolutionOutcome{
		State:    types.StateResolved,
		Location: &loc,
		Action:   action,
	}, nil
}
