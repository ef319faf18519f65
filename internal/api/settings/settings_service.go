package settings

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service exposes the application-wide preferences used by both front ends.
type Service interface {
	Get(ctx context.Context) (types.Settings, error)
	Update(ctx context.Context, params types.UpdateSettingsParams) (types.Settings, error)
	SetTemperatureUnit(ctx context.Context, unit string) (types.Settings, error)
	SetDefaultLocation(ctx context.Context, locationID int64) (types.Settings, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewSettingsService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) Get(ctx context.Context) (types.Settings, error) {
	ctx, span := otel.Tracer("SettingsService").Start(ctx, "Get")
	defer span.End()

	current, err := s.repo.Get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return types.Settings{}, err
	}
	return *current, nil
}

func (s *ServiceImpl) Update(ctx context.Context, params types.UpdateSettingsParams) (types.Settings, error) {
	ctx, span := otel.Tracer("SettingsService").Start(ctx, "Update")
	defer span.End()

	if params.TemperatureUnit != nil {
		normalized := types.NormalizeUnit(*params.TemperatureUnit)
		params.TemperatureUnit = &normalized
	}
	if params.ForecastDays != nil && (*params.ForecastDays < 1 || *params.ForecastDays > 7) {
		return types.Settings{}, fmt.Errorf("forecast days must be between 1 and 7, got %d", *params.ForecastDays)
	}
	if params.MaxHistoryDays != nil && *params.MaxHistoryDays < 1 {
		return types.Settings{}, fmt.Errorf("max history days must be positive, got %d", *params.MaxHistoryDays)
	}

	updated, err := s.repo.Update(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return types.Settings{}, err
	}

	s.logger.InfoContext(ctx, "Settings updated",
		slog.String("temperature_unit", updated.TemperatureUnit),
		slog.Int("forecast_days", updated.ForecastDays),
	)
	return *updated, nil
}

func (s *ServiceImpl) SetTemperatureUnit(ctx context.Context, unit string) (types.Settings, error) {
	normalized := types.NormalizeUnit(unit)
	return s.Update(ctx, types.UpdateSettingsParams{TemperatureUnit: &normalized})
}

func (s *ServiceImpl) SetDefaultLocation(ctx context.Context, locationID int64) (types.Settings, error) {
	return s.Update(ctx, types.UpdateSettingsParams{DefaultLocationID: &locationID})
}
