package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/xtinalang/weather-dashboard-sub000/app/db"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

var _ RecordRepository = (*PostgresWeatherRepository)(nil)

// RecordRepository persists weather observation history.
type RecordRepository interface {
	SaveRecord(ctx context.Context, rec types.WeatherRecord) (*types.WeatherRecord, error)
	RecordsForLocation(ctx context.Context, locationID int64, limit int) ([]types.WeatherRecord, error)

	// PruneOlderThan deletes records whose timestamp predates the cutoff and
	// returns the number of rows removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresWeatherRepository struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresWeatherRepository(pgpool database.Querier, logger *slog.Logger) *PostgresWeatherRepository {
	return &PostgresWeatherRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

const recordColumns = `id, location_id, timestamp, temperature, feels_like, humidity, pressure, wind_speed, wind_direction, condition, condition_description`

func scanRecord(row pgx.Row) (*types.WeatherRecord, error) {
	var rec types.WeatherRecord
	err := row.Scan(
		&rec.ID,
		&rec.LocationID,
		&rec.Timestamp,
		&rec.Temperature,
		&rec.FeelsLike,
		&rec.Humidity,
		&rec.Pressure,
		&rec.WindSpeed,
		&rec.WindDirection,
		&rec.Condition,
		&rec.ConditionDescription,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresWeatherRepository) SaveRecord(ctx context.Context, rec types.WeatherRecord) (*types.WeatherRecord, error) {
	ctx, span := otel.Tracer("WeatherRepo").Start(ctx, "SaveRecord", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "weather_records"),
		attribute.Int64("location.id", rec.LocationID),
	))
	defer span.End()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	query := `
        INSERT INTO weather_records (location_id, timestamp, temperature, feels_like, humidity, pressure, wind_speed, wind_direction, condition, condition_description)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + recordColumns + `
    `
	saved, err := scanRecord(r.pgpool.QueryRow(ctx, query,
		rec.LocationID, rec.Timestamp, rec.Temperature, rec.FeelsLike, rec.Humidity,
		rec.Pressure, rec.WindSpeed, rec.WindDirection, rec.Condition, rec.ConditionDescription,
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("failed to save weather record: %w", err)
	}

	r.logger.DebugContext(ctx, "Weather record saved",
		slog.Int64("id", saved.ID),
		slog.Int64("location_id", saved.LocationID),
	)
	return saved, nil
}

func (r *PostgresWeatherRepository) RecordsForLocation(ctx context.Context, locationID int64, limit int) ([]types.WeatherRecord, error) {
	ctx, span := otel.Tracer("WeatherRepo").Start(ctx, "RecordsForLocation", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "weather_records"),
		attribute.Int64("location.id", locationID),
	))
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT ` + recordColumns + `
        FROM weather_records
        WHERE location_id = $1
        ORDER BY timestamp DESC
        LIMIT $2
    `
	rows, err := r.pgpool.Query(ctx, query, locationID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list weather records: %w", err)
	}
	defer rows.Close()

	var records []types.WeatherRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather record row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading weather record rows: %w", err)
	}
	return records, nil
}

func (r *PostgresWeatherRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := otel.Tracer("WeatherRepo").Start(ctx, "PruneOlderThan", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "weather_records"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM weather_records WHERE timestamp < $1`, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return 0, fmt.Errorf("failed to prune weather records: %w", err)
	}

	removed := tag.RowsAffected()
	if removed > 0 {
		r.logger.InfoContext(ctx, "Pruned weather history", slog.Int64("removed", removed))
	}
	return removed, nil
}
