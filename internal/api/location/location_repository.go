package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/xtinalang/weather-dashboard-sub000/app/db"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

var _ Repository = (*PostgresLocationRepository)(nil)

// Repository is the persistence contract the resolver depends on. Every
// returned Location is a detached value snapshot; implementations must never
// hand out objects bound to a live transaction.
type Repository interface {
	// FindExact returns the location with exactly these coordinates, or
	// types.ErrNotFound.
	FindExact(ctx context.Context, lat, lon float64) (*types.Location, error)

	// FindNear returns the first location whose coordinates fall within the
	// tolerance on both axes, or types.ErrNotFound. The tolerance is pushed
	// into the query rather than scanning rows client-side.
	FindNear(ctx context.Context, lat, lon, tolerance float64) (*types.Location, error)

	// FindByName returns the first location matching the name
	// case-insensitively, or types.ErrNotFound.
	FindByName(ctx context.Context, name string) (*types.Location, error)

	GetByID(ctx context.Context, id int64) (*types.Location, error)
	GetAll(ctx context.Context, limit, offset int) ([]types.Location, error)
	GetFavorites(ctx context.Context) ([]types.Location, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, loc types.Location) (*types.Location, error)

	// Update applies the non-nil fields and bumps updated_at.
	// Returns types.ErrNotFound when the id does not exist.
	Update(ctx context.Context, id int64, params types.UpdateLocationParams) (*types.Location, error)
}

type PostgresLocationRepository struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresLocationRepository(pgpool database.Querier, logger *slog.Logger) *PostgresLocationRepository {
	return &PostgresLocationRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

const locationColumns = `id, name, latitude, longitude, country, region, is_favorite, created_at, updated_at`

func scanLocation(row pgx.Row) (*types.Location, error) {
	var loc types.Location
	err := row.Scan(
		&loc.ID,
		&loc.Name,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Country,
		&loc.Region,
		&loc.IsFavorite,
		&loc.CreatedAt,
		&loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *PostgresLocationRepository) FindExact(ctx context.Context, lat, lon float64) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "FindExact", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	query := `
        SELECT ` + locationColumns + `
        FROM locations
        WHERE latitude = $1 AND longitude = $2
        LIMIT 1
    `
	loc, err := scanLocation(r.pgpool.QueryRow(ctx, query, lat, lon))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to find location by exact coordinates: %w", err)
	}
	return loc, nil
}

func (r *PostgresLocationRepository) FindNear(ctx context.Context, lat, lon, tolerance float64) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "FindNear", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
		attribute.Float64("location.tolerance", tolerance),
	))
	defer span.End()

	query := `
        SELECT ` + locationColumns + `
        FROM locations
        WHERE abs(latitude - $1) < $3 AND abs(longitude - $2) < $3
        ORDER BY abs(latitude - $1) + abs(longitude - $2)
        LIMIT 1
    `
	loc, err := scanLocation(r.pgpool.QueryRow(ctx, query, lat, lon, tolerance))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to find location near coordinates: %w", err)
	}
	return loc, nil
}

func (r *PostgresLocationRepository) FindByName(ctx context.Context, name string) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "FindByName", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	query := `
        SELECT ` + locationColumns + `
        FROM locations
        WHERE lower(name) = lower($1)
        ORDER BY id
        LIMIT 1
    `
	loc, err := scanLocation(r.pgpool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to find location by name: %w", err)
	}
	return loc, nil
}

func (r *PostgresLocationRepository) GetByID(ctx context.Context, id int64) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
		attribute.Int64("location.id", id),
	))
	defer span.End()

	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	loc, err := scanLocation(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to get location by id: %w", err)
	}
	return loc, nil
}

func (r *PostgresLocationRepository) GetAll(ctx context.Context, limit, offset int) ([]types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "GetAll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	query := `
        SELECT ` + locationColumns + `
        FROM locations
        ORDER BY id
        LIMIT $1 OFFSET $2
    `
	rows, err := r.pgpool.Query(ctx, query, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

func (r *PostgresLocationRepository) GetFavorites(ctx context.Context) ([]types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "GetFavorites", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	query := `
        SELECT ` + locationColumns + `
        FROM locations
        WHERE is_favorite
        ORDER BY name
    `
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list favorite locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

func collectLocations(rows pgx.Rows) ([]types.Location, error) {
	var locations []types.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading location rows: %w", err)
	}
	return locations, nil
}

func (r *PostgresLocationRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "Count", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	var count int64
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM locations`).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}
	return count, nil
}

func (r *PostgresLocationRepository) Create(ctx context.Context, loc types.Location) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"))
	l.DebugContext(ctx, "Inserting location",
		slog.String("name", loc.Name),
		slog.Float64("lat", loc.Latitude),
		slog.Float64("lon", loc.Longitude),
	)

	query := `
        INSERT INTO locations (name, latitude, longitude, country, region, is_favorite, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now(), now())
        RETURNING ` + locationColumns + `
    `
	created, err := scanLocation(r.pgpool.QueryRow(ctx, query,
		loc.Name, loc.Latitude, loc.Longitude, loc.Country, loc.Region, loc.IsFavorite,
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}

	l.InfoContext(ctx, "Location created", slog.Int64("id", created.ID))
	return created, nil
}

func (r *PostgresLocationRepository) Update(ctx context.Context, id int64, params types.UpdateLocationParams) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
		attribute.Int64("location.id", id),
	))
	defer span.End()

	query := `
        UPDATE locations
        SET name        = COALESCE($2, name),
            country     = COALESCE($3, country),
            region      = COALESCE($4, region),
            is_favorite = COALESCE($5, is_favorite),
            updated_at  = now()
        WHERE id = $1
        RETURNING ` + locationColumns + `
    `
	updated, err := scanLocation(r.pgpool.QueryRow(ctx, query,
		id, params.Name, params.Country, params.Region, params.IsFavorite,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	r.logger.DebugContext(ctx, "Location updated", slog.Int64("id", id))
	return updated, nil
}
