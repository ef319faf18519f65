package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/settings"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Provider fetches weather payloads for a coordinate pair.
type Provider interface {
	GetCurrent(ctx context.Context, coords types.Coordinates) (*types.WeatherResponse, error)
	GetForecast(ctx context.Context, coords types.Coordinates, days int) (*types.WeatherResponse, error)
}

// Service fetches weather for a resolved location, enriches placeholder
// names from the payload, and records history according to settings.
type Service interface {
	// Current returns current conditions. The returned Location reflects any
	// placeholder enrichment applied from the payload.
	Current(ctx context.Context, loc types.Location) (*types.WeatherResponse, types.Location, error)

	// Forecast returns current conditions plus up to days of daily forecast.
	// days <= 0 falls back to the configured forecast_days setting.
	Forecast(ctx context.Context, loc types.Location, days int) (*types.WeatherResponse, types.Location, error)

	History(ctx context.Context, locationID int64, limit int) ([]types.WeatherRecord, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	provider    Provider
	records     RecordRepository
	locationSvc location.Service
	settingsSvc settings.Service
}

func NewWeatherService(
	provider Provider,
	records RecordRepository,
	locationSvc location.Service,
	settingsSvc settings.Service,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		provider:    provider,
		records:     records,
		locationSvc: locationSvc,
		settingsSvc: settingsSvc,
	}
}

func (s *ServiceImpl) Current(ctx context.Context, loc types.Location) (*types.WeatherResponse, types.Location, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Current", trace.WithAttributes(
		attribute.Int64("location.id", loc.ID),
	))
	defer span.End()

	payload, err := s.provider.GetCurrent(ctx, loc.Coordinates())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider fetch failed")
		return nil, loc, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	loc = s.enrichAndRecord(ctx, loc, payload)
	return payload, loc, nil
}

func (s *ServiceImpl) Forecast(ctx context.Context, loc types.Location, days int) (*types.WeatherResponse, types.Location, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Forecast", trace.WithAttributes(
		attribute.Int64("location.id", loc.ID),
		attribute.Int("forecast.days", days),
	))
	defer span.End()

	if days <= 0 {
		cfg, err := s.settingsSvc.Get(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Falling back to default forecast length", slog.Any("error", err))
			days = types.DefaultSettings().ForecastDays
		} else {
			days = cfg.ForecastDays
		}
	}

	payload, err := s.provider.GetForecast(ctx, loc.Coordinates(), days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider fetch failed")
		return nil, loc, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	loc = s.enrichAndRecord(ctx, loc, payload)
	return payload, loc, nil
}

// enrichAndRecord applies the payload name to placeholder locations and saves
// a history record when enabled. Both steps are best-effort: a storage hiccup
// here must not fail a successful weather fetch.
func (s *ServiceImpl) enrichAndRecord(ctx context.Context, loc types.Location, payload *types.WeatherResponse) types.Location {
	enriched, err := s.locationSvc.UpdateFromPayload(ctx, loc, payload.Location)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to enrich location from payload",
			slog.Int64("location_id", loc.ID),
			slog.Any("error", err),
		)
	} else {
		loc = enriched
	}

	cfg, err := s.settingsSvc.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping history save, settings unavailable", slog.Any("error", err))
		return loc
	}
	if !cfg.SaveHistory {
		return loc
	}

	rec := recordFromPayload(loc.ID, payload)
	if _, err := s.records.SaveRecord(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "Failed to save weather record",
			slog.Int64("location_id", loc.ID),
			slog.Any("error", err),
		)
		return loc
	}

	if cfg.MaxHistoryDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.MaxHistoryDays)
		if _, err := s.records.PruneOlderThan(ctx, cutoff); err != nil {
			s.logger.WarnContext(ctx, "Failed to prune weather history", slog.Any("error", err))
		}
	}
	return loc
}

func recordFromPayload(locationID int64, payload *types.WeatherResponse) types.WeatherRecord {
	cur := payload.Current

	feels := cur.FeelslikeC
	humidity := cur.Humidity
	pressure := cur.PressureMb
	wind := cur.WindKph
	windDir := cur.WindDir

	return types.WeatherRecord{
		LocationID:    locationID,
		Timestamp:     time.Now().UTC(),
		Temperature:   cur.TempC,
		FeelsLike:     &feels,
		Humidity:      &humidity,
		Pressure:      &pressure,
		WindSpeed:     &wind,
		WindDirection: &windDir,
		Condition:     cur.Condition.Text,
	}
}

func (s *ServiceImpl) History(ctx context.Context, locationID int64, limit int) ([]types.WeatherRecord, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "History", trace.WithAttributes(
		attribute.Int64("location.id", locationID),
	))
	defer span.End()

	records, err := s.records.RecordsForLocation(ctx, locationID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}
