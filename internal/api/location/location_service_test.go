package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// MockLocationRepository is a mock implementation of Repository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindExact(ctx context.Context, lat, lon float64) (*types.Location, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Location), args.Error(1)
}

func (m *MockLocationRepository) FindNear(ctx context.Context, lat, lon, tolerance float64) (*types.Location, error) {
	args := m.Called(ctx, lat, lon, tolerance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Location), args.Error(1)
}

func (m *MockLocationRepository) FindByName(ctx context.Context, name string) (*types.Location, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Location), args.Error(1)
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id int64) (*types.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Location), args.Error(1)
}

func (m *MockLocationRepository) GetAll(ctx context.Context, limit, offset int) ([]types.Location, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Location), args.Error(1)
}

func (m *MockLocationRepository) GetFavorites(ctx context.Context) ([]types.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Location), args.Error(1)
}

func (m *MockLocationRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLocationRepository) Create(ctx context.Context, loc types.Location) (*types.Location, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Location), args.Error(1)
}

func (m *MockLocationRepository) Update(ctx context.Context, id int64, params types.UpdateLocationParams) (*types.Location, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Location), args.Error(1)
}

// Helper to setup service with mock repository
func setupLocationServiceTest() (*ServiceImpl, *MockLocationRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockLocationRepository)
	service := NewLocationService(mockRepo, DefaultTolerance, logger)
	return service, mockRepo
}

func TestLocationService_FindOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("exact match wins", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		existing := &types.Location{ID: 1, Name: "London", Latitude: 51.5074, Longitude: -0.1278}
		mockRepo.On("FindExact", ctx, 51.5074, -0.1278).Return(existing, nil).Once()

		loc, err := service.FindOrCreate(ctx, "London", 51.5074, -0.1278, "United Kingdom", nil)
		require.NoError(t, err)
		assert.Equal(t, *existing, loc)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("near match within tolerance wins", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		near := &types.Location{ID: 2, Name: "London", Latitude: 51.5080, Longitude: -0.1280}
		mockRepo.On("FindExact", ctx, 51.5074, -0.1278).Return(nil, types.ErrNotFound).Once()
		mockRepo.On("FindNear", ctx, 51.5074, -0.1278, DefaultTolerance).Return(near, nil).Once()

		loc, err := service.FindOrCreate(ctx, "London", 51.5074, -0.1278, "United Kingdom", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), loc.ID)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("no match creates a new location", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		created := &types.Location{ID: 3, Name: "Reykjavik", Latitude: 64.1466, Longitude: -21.9426, Country: "Iceland"}
		mockRepo.On("FindExact", ctx, 64.1466, -21.9426).Return(nil, types.ErrNotFound).Once()
		mockRepo.On("FindNear", ctx, 64.1466, -21.9426, DefaultTolerance).Return(nil, types.ErrNotFound).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(loc types.Location) bool {
			return loc.Name == "Reykjavik" && loc.Latitude == 64.1466 && loc.Longitude == -21.9426
		})).Return(created, nil).Once()

		loc, err := service.FindOrCreate(ctx, "Reykjavik", 64.1466, -21.9426, "Iceland", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), loc.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("returned location is a detached copy", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		stored := &types.Location{ID: 4, Name: "Oslo", Latitude: 59.9139, Longitude: 10.7522}
		mockRepo.On("FindExact", ctx, 59.9139, 10.7522).Return(stored, nil).Once()

		loc, err := service.FindOrCreate(ctx, "Oslo", 59.9139, 10.7522, "Norway", nil)
		require.NoError(t, err)

		loc.Name = "mutated"
		assert.Equal(t, "Oslo", stored.Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-finite coordinates rejected before any lookup", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()

		_, err := service.FindOrCreate(ctx, "Nowhere", math.NaN(), 0, "", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidCoordinate))
		mockRepo.AssertNotCalled(t, "FindExact", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		repoErr := errors.New("connection refused")
		mockRepo.On("FindExact", ctx, 1.0, 2.0).Return(nil, repoErr).Once()

		_, err := service.FindOrCreate(ctx, "X", 1, 2, "", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, repoErr))
		mockRepo.AssertExpectations(t)
	})
}

func TestLocationService_UpdateFromPayload(t *testing.T) {
	ctx := context.Background()
	payload := types.PayloadLocation{Name: "London", Region: "City of London", Country: "United Kingdom"}

	t.Run("placeholder gets enriched", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		placeholder := types.Location{ID: 5, Name: PlaceholderName}
		enriched := &types.Location{ID: 5, Name: "London", Country: "United Kingdom"}

		mockRepo.On("Update", ctx, int64(5), mock.MatchedBy(func(p types.UpdateLocationParams) bool {
			return p.Name != nil && *p.Name == "London" && p.Region != nil && *p.Region == "City of London"
		})).Return(enriched, nil).Once()

		loc, err := service.UpdateFromPayload(ctx, placeholder, payload)
		require.NoError(t, err)
		assert.Equal(t, "London", loc.Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("named location left alone", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		named := types.Location{ID: 6, Name: "Lisbon"}

		loc, err := service.UpdateFromPayload(ctx, named, payload)
		require.NoError(t, err)
		assert.Equal(t, named, loc)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty payload name left alone", func(t *testing.T) {
		service, mockRepo := setupLocationServiceTest()
		placeholder := types.Location{ID: 7, Name: PlaceholderName}

		loc, err := service.UpdateFromPayload(ctx, placeholder, types.PayloadLocation{})
		require.NoError(t, err)
		assert.Equal(t, placeholder, loc)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLocationService_ToggleFavorite(t *testing.T) {
	ctx := context.Background()
	service, mockRepo := setupLocationServiceTest()

	stored := &types.Location{ID: 8, Name: "Porto", IsFavorite: false}
	toggled := &types.Location{ID: 8, Name: "Porto", IsFavorite: true}

	mockRepo.On("GetByID", ctx, int64(8)).Return(stored, nil).Once()
	mockRepo.On("Update", ctx, int64(8), mock.MatchedBy(func(p types.UpdateLocationParams) bool {
		return p.IsFavorite != nil && *p.IsFavorite
	})).Return(toggled, nil).Once()

	loc, err := service.ToggleFavorite(ctx, 8)
	require.NoError(t, err)
	assert.True(t, loc.IsFavorite)
	mockRepo.AssertExpectations(t)
}
