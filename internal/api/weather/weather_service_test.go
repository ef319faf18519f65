package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetCurrent(ctx context.Context, coords types.Coordinates) (*types.WeatherResponse, error) {
	args := m.Called(ctx, coords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WeatherResponse), args.Error(1)
}

func (m *MockProvider) GetForecast(ctx context.Context, coords types.Coordinates, days int) (*types.WeatherResponse, error) {
	args := m.Called(ctx, coords, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WeatherResponse), args.Error(1)
}

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) SaveRecord(ctx context.Context, rec types.WeatherRecord) (*types.WeatherRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WeatherRecord), args.Error(1)
}

func (m *MockRecordRepository) RecordsForLocation(ctx context.Context, locationID int64, limit int) ([]types.WeatherRecord, error) {
	args := m.Called(ctx, locationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.WeatherRecord), args.Error(1)
}

func (m *MockRecordRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) FindOrCreate(ctx context.Context, name string, lat, lon float64, country string, region *string) (types.Location, error) {
	args := m.Called(ctx, name, lat, lon, country, region)
	return args.Get(0).(types.Location), args.Error(1)
}

func (m *MockLocationService) ResolveCandidate(ctx context.Context, cand types.CandidateLocation) (types.Location, error) {
	args := m.Called(ctx, cand)
	return args.Get(0).(types.Location), args.Error(1)
}

func (m *MockLocationService) UpdateFromPayload(ctx context.Context, loc types.Location, payload types.PayloadLocation) (types.Location, error) {
	args := m.Called(ctx, loc, payload)
	return args.Get(0).(types.Location), args.Error(1)
}

func (m *MockLocationService) ToggleFavorite(ctx context.Context, id int64) (types.Location, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Location), args.Error(1)
}

func (m *MockLocationService) Favorites(ctx context.Context) ([]types.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Location), args.Error(1)
}

func (m *MockLocationService) Saved(ctx context.Context, limit int) ([]types.Location, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Location), args.Error(1)
}

var _ location.Service = (*MockLocationService)(nil)

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context) (types.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Settings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, params types.UpdateSettingsParams) (types.Settings, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(types.Settings), args.Error(1)
}

func (m *MockSettingsService) SetTemperatureUnit(ctx context.Context, unit string) (types.Settings, error) {
	args := m.Called(ctx, unit)
	return args.Get(0).(types.Settings), args.Error(1)
}

func (m *MockSettingsService) SetDefaultLocation(ctx context.Context, locationID int64) (types.Settings, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).(types.Settings), args.Error(1)
}

func setupWeatherServiceTest() (*ServiceImpl, *MockProvider, *MockRecordRepository, *MockLocationService, *MockSettingsService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := new(MockProvider)
	records := new(MockRecordRepository)
	locationSvc := new(MockLocationService)
	settingsSvc := new(MockSettingsService)
	service := NewWeatherService(provider, records, locationSvc, settingsSvc, logger)
	return service, provider, records, locationSvc, settingsSvc
}

func samplePayload() *types.WeatherResponse {
	return &types.WeatherResponse{
		Location: types.PayloadLocation{Name: "London", Region: "City of London", Country: "United Kingdom"},
		Current: types.CurrentWeather{
			TempC:     14.0,
			Condition: types.WeatherCondition{Text: "Partly cloudy"},
			Humidity:  72,
		},
	}
}

func TestWeatherService_Current(t *testing.T) {
	ctx := context.Background()
	loc := types.Location{ID: 1, Name: "London", Latitude: 51.5072, Longitude: -0.1276}

	t.Run("fetches, enriches and records", func(t *testing.T) {
		service, provider, records, locationSvc, settingsSvc := setupWeatherServiceTest()
		payload := samplePayload()
		cfg := types.DefaultSettings()

		provider.On("GetCurrent", ctx, loc.Coordinates()).Return(payload, nil).Once()
		locationSvc.On("UpdateFromPayload", ctx, loc, payload.Location).Return(loc, nil).Once()
		settingsSvc.On("Get", ctx).Return(cfg, nil).Once()
		records.On("SaveRecord", ctx, mock.MatchedBy(func(rec types.WeatherRecord) bool {
			return rec.LocationID == 1 && rec.Temperature == 14.0 && rec.Condition == "Partly cloudy"
		})).Return(&types.WeatherRecord{ID: 10, LocationID: 1}, nil).Once()
		records.On("PruneOlderThan", ctx, mock.Anything).Return(int64(0), nil).Once()

		got, gotLoc, err := service.Current(ctx, loc)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
		assert.Equal(t, loc, gotLoc)
		provider.AssertExpectations(t)
		records.AssertExpectations(t)
	})

	t.Run("history disabled skips recording", func(t *testing.T) {
		service, provider, records, locationSvc, settingsSvc := setupWeatherServiceTest()
		payload := samplePayload()
		cfg := types.DefaultSettings()
		cfg.SaveHistory = false

		provider.On("GetCurrent", ctx, loc.Coordinates()).Return(payload, nil).Once()
		locationSvc.On("UpdateFromPayload", ctx, loc, payload.Location).Return(loc, nil).Once()
		settingsSvc.On("Get", ctx).Return(cfg, nil).Once()

		_, _, err := service.Current(ctx, loc)
		require.NoError(t, err)
		records.AssertNotCalled(t, "SaveRecord", mock.Anything, mock.Anything)
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		service, provider, _, _, _ := setupWeatherServiceTest()
		provider.On("GetCurrent", ctx, loc.Coordinates()).
			Return(nil, types.ErrProviderUnavailable).Once()

		_, _, err := service.Current(ctx, loc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrProviderUnavailable))
	})

	t.Run("record failure does not fail the fetch", func(t *testing.T) {
		service, provider, records, locationSvc, settingsSvc := setupWeatherServiceTest()
		payload := samplePayload()
		cfg := types.DefaultSettings()

		provider.On("GetCurrent", ctx, loc.Coordinates()).Return(payload, nil).Once()
		locationSvc.On("UpdateFromPayload", ctx, loc, payload.Location).Return(loc, nil).Once()
		settingsSvc.On("Get", ctx).Return(cfg, nil).Once()
		records.On("SaveRecord", ctx, mock.Anything).Return(nil, errors.New("disk full")).Once()

		got, _, err := service.Current(ctx, loc)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})
}

func TestWeatherService_Forecast(t *testing.T) {
	ctx := context.Background()
	loc := types.Location{ID: 2, Name: "Paris", Latitude: 48.8566, Longitude: 2.3522}

	t.Run("zero days falls back to configured forecast length", func(t *testing.T) {
		service, provider, records, locationSvc, settingsSvc := setupWeatherServiceTest()
		payload := samplePayload()
		cfg := types.DefaultSettings()
		cfg.ForecastDays = 3
		cfg.SaveHistory = false

		settingsSvc.On("Get", ctx).Return(cfg, nil).Twice()
		provider.On("GetForecast", ctx, loc.Coordinates(), 3).Return(payload, nil).Once()
		locationSvc.On("UpdateFromPayload", ctx, loc, payload.Location).Return(loc, nil).Once()

		_, _, err := service.Forecast(ctx, loc, 0)
		require.NoError(t, err)
		provider.AssertExpectations(t)
		records.AssertNotCalled(t, "SaveRecord", mock.Anything, mock.Anything)
	})

	t.Run("explicit days respected", func(t *testing.T) {
		service, provider, _, locationSvc, settingsSvc := setupWeatherServiceTest()
		payload := samplePayload()
		cfg := types.DefaultSettings()
		cfg.SaveHistory = false

		provider.On("GetForecast", ctx, loc.Coordinates(), 5).Return(payload, nil).Once()
		locationSvc.On("UpdateFromPayload", ctx, loc, payload.Location).Return(loc, nil).Once()
		settingsSvc.On("Get", ctx).Return(cfg, nil).Once()

		_, _, err := service.Forecast(ctx, loc, 5)
		require.NoError(t, err)
		provider.AssertExpectations(t)
	})
}

func TestWeatherService_History(t *testing.T) {
	ctx := context.Background()
	service, _, records, _, _ := setupWeatherServiceTest()

	stored := []types.WeatherRecord{{ID: 1, LocationID: 3}, {ID: 2, LocationID: 3}}
	records.On("RecordsForLocation", ctx, int64(3), 20).Return(stored, nil).Once()

	got, err := service.History(ctx, 3, 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	records.AssertExpectations(t)
}
