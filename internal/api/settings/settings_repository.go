package settings

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

var _ Repository = (*PostgresSettingsRepository)(nil)

// Repository stores the single user_settings row. The table carries a CHECK
// constraint pinning id to 1; Get seeds defaults on first access.
type Repository interface {
	Get(ctx context.Context) (*types.Settings, error)
	Update(ctx context.Context, params types.UpdateSettingsParams) (*types.Settings, error)
}

type PostgresSettingsRepository struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresSettingsRepository(pgpool database.Querier, logger *slog.Logger) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

const settingsColumns = `id, temperature_unit, wind_speed_unit, default_location_id, save_history, max_history_days, forecast_days, updated_at`

func scanSettings(row pgx.Row) (*types.Settings, error) {
	var s types.Settings
	err := row.Scan(
		&s.ID,
		&s.TemperatureUnit,
		&s.WindSpeedUnit,
		&s.DefaultLocationID,
		&s.SaveHistory,
		&s.MaxHistoryDays,
		&s.ForecastDays,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (*types.Settings, error) {
	ctx, span := otel.Tracer("SettingsRepo").Start(ctx, "Get", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_settings"),
	))
	defer span.End()

	query := `SELECT ` + settingsColumns + ` FROM user_settings WHERE id = 1`
	s, err := scanSettings(r.pgpool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.seedDefaults(ctx)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// seedDefaults inserts the default row. ON CONFLICT keeps a concurrent first
// access from failing; whichever insert lands first wins and both callers read
// the same row back.
func (r *PostgresSettingsRepository) seedDefaults(ctx context.Context) (*types.Settings, error) {
	def := types.DefaultSettings()

	query := `
        INSERT INTO user_settings (id, temperature_unit, wind_speed_unit, save_history, max_history_days, forecast_days, updated_at)
        VALUES (1, $1, $2, $3, $4, $5, now())
        ON CONFLICT (id) DO NOTHING
    `
	if _, err := r.pgpool.Exec(ctx, query,
		def.TemperatureUnit, def.WindSpeedUnit, def.SaveHistory, def.MaxHistoryDays, def.ForecastDays,
	); err != nil {
		return nil, fmt.Errorf("failed to seed default settings: %w", err)
	}

	r.logger.InfoContext(ctx, "Seeded default settings row")

	s, err := scanSettings(r.pgpool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM user_settings WHERE id = 1`))
	if err != nil {
		return nil, fmt.Errorf("failed to reload settings after seed: %w", err)
	}
	return s, nil
}

func (r *PostgresSettingsRepository) Update(ctx context.Context, params types.UpdateSettingsParams) (*types.Settings, error) {
	ctx, span := otel.Tracer("SettingsRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_settings"),
	))
	defer span.End()

	// Ensure the row exists before a partial update.
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}

	query := `
        UPDATE user_settings
        SET temperature_unit    = COALESCE($1, temperature_unit),
            wind_speed_unit     = COALESCE($2, wind_speed_unit),
            default_location_id = COALESCE($3, default_location_id),
            save_history        = COALESCE($4, save_history),
            max_history_days    = COALESCE($5, max_history_days),
            forecast_days       = COALESCE($6, forecast_days),
            updated_at          = now()
        WHERE id = 1
        RETURNING ` + settingsColumns + `
    `
	s, err := scanSettings(r.pgpool.QueryRow(ctx, query,
		params.TemperatureUnit, params.WindSpeedUnit, params.DefaultLocationID,
		params.SaveHistory, params.MaxHistoryDays, params.ForecastDays,
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	r.logger.DebugContext(ctx, "Settings updated", slog.String("unit", s.TemperatureUnit))
	return s, nil
}
