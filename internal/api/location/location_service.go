package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// PlaceholderName marks a location created from bare coordinates before any
// provider payload has named it. UpdateFromPayload only overwrites names that
// still carry this placeholder.
const PlaceholderName = "Custom Location"

var _ Service = (*ServiceImpl)(nil)

// Service resolves coordinates to persisted locations. Every Location leaving
// this service is a detached value snapshot, safe to read long after the
// repository call that produced it — there is no live handle to refresh.
type Service interface {
	// FindOrCreate returns the stored location matching the coordinates
	// within the configured tolerance, creating one when nothing matches.
	// Storage faults are wrapped and propagated, never retried here.
	FindOrCreate(ctx context.Context, name string, lat, lon float64, country string, region *string) (types.Location, error)

	// ResolveCandidate runs FindOrCreate for a search candidate.
	ResolveCandidate(ctx context.Context, cand types.CandidateLocation) (types.Location, error)

	// UpdateFromPayload enriches a placeholder-named location with the
	// name/region/country the weather payload reports. Locations that were
	// already named are returned unchanged.
	UpdateFromPayload(ctx context.Context, loc types.Location, payload types.PayloadLocation) (types.Location, error)

	// ToggleFavorite flips the favorite flag and returns the updated snapshot.
	ToggleFavorite(ctx context.Context, id int64) (types.Location, error)

	Favorites(ctx context.Context) ([]types.Location, error)
	Saved(ctx context.Context, limit int) ([]types.Location, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	tolerance float64
}

// NewLocationService creates a resolver around the given store. A tolerance
// of zero or below falls back to DefaultTolerance.
func NewLocationService(repo Repository, tolerance float64, logger *slog.Logger) *ServiceImpl {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		tolerance: tolerance,
	}
}

func (s *ServiceImpl) FindOrCreate(ctx context.Context, name string, lat, lon float64, country string, region *string) (types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "FindOrCreate", trace.WithAttributes(
		attribute.Float64("location.lat", lat),
		attribute.Float64("location.lon", lon),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FindOrCreate"), slog.String("name", name))

	coords := types.Coordinates{Lat: lat, Lon: lon}
	if err := coords.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid coordinates")
		return types.Location{}, err
	}

	// Exact match first: round-tripped coordinates hit this path.
	found, err := s.repo.FindExact(ctx, lat, lon)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exact lookup failed")
		return types.Location{}, fmt.Errorf("exact coordinate lookup failed: %w", err)
	}

	if found == nil {
		near, err := s.repo.FindNear(ctx, lat, lon, s.tolerance)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "tolerant lookup failed")
			return types.Location{}, fmt.Errorf("tolerant coordinate lookup failed: %w", err)
		}
		if near != nil {
			// The store already applied the tolerance; re-check through the
			// matcher so the uniqueness invariant has a single definition.
			same, err := SamePlace(coords, near.Coordinates(), s.tolerance)
			if err != nil {
				return types.Location{}, err
			}
			if same {
				found = near
			}
		}
	}

	if found != nil {
		l.DebugContext(ctx, "Location matched existing record", slog.Int64("id", found.ID))
		return *found, nil
	}

	// No match: create. Two concurrent resolutions of the same new
	// coordinate can both reach this point and create near-duplicates; the
	// storage layer enforces no uniqueness across the tolerance window.
	created, err := s.repo.Create(ctx, types.Location{
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		Country:   country,
		Region:    region,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return types.Location{}, fmt.Errorf("failed to create location: %w", err)
	}

	l.InfoContext(ctx, "Location created", slog.Int64("id", created.ID))
	span.SetStatus(codes.Ok, "location created")
	return *created, nil
}

func (s *ServiceImpl) ResolveCandidate(ctx context.Context, cand types.CandidateLocation) (types.Location, error) {
	var region *string
	if cand.Region != "" {
		r := cand.Region
		region = &r
	}
	return s.FindOrCreate(ctx, cand.Name, cand.Lat, cand.Lon, cand.Country, region)
}

func (s *ServiceImpl) UpdateFromPayload(ctx context.Context, loc types.Location, payload types.PayloadLocation) (types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "UpdateFromPayload", trace.WithAttributes(
		attribute.Int64("location.id", loc.ID),
	))
	defer span.End()

	if loc.Name != PlaceholderName || payload.Name == "" {
		return loc, nil
	}

	params := types.UpdateLocationParams{
		Name:    &payload.Name,
		Country: &payload.Country,
	}
	if payload.Region != "" {
		params.Region = &payload.Region
	}

	updated, err := s.repo.Update(ctx, loc.ID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return types.Location{}, fmt.Errorf("failed to enrich placeholder location %d: %w", loc.ID, err)
	}

	s.logger.InfoContext(ctx, "Placeholder location enriched from payload",
		slog.Int64("id", updated.ID),
		slog.String("name", updated.Name),
	)
	return *updated, nil
}

func (s *ServiceImpl) ToggleFavorite(ctx context.Context, id int64) (types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "ToggleFavorite", trace.WithAttributes(
		attribute.Int64("location.id", id),
	))
	defer span.End()

	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return types.Location{}, fmt.Errorf("failed to load location %d: %w", id, err)
	}

	fav := !loc.IsFavorite
	updated, err := s.repo.Update(ctx, id, types.UpdateLocationParams{IsFavorite: &fav})
	if err != nil {
		span.RecordError(err)
		return types.Location{}, fmt.Errorf("failed to toggle favorite on location %d: %w", id, err)
	}
	return *updated, nil
}

func (s *ServiceImpl) Favorites(ctx context.Context) ([]types.Location, error) {
	favorites, err := s.repo.GetFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (s *ServiceImpl) Saved(ctx context.Context, limit int) ([]types.Location, error) {
	if limit <= 0 {
		limit = 10
	}
	saved, err := s.repo.GetAll(ctx, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved locations: %w", err)
	}
	return saved, nil
}
