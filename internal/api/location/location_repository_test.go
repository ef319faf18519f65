package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

func setupRepoTest(t *testing.T) (*PostgresLocationRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresLocationRepository(mockPool, logger), mockPool
}

func locationRow(id int64) *pgxmock.Rows {
	now := time.Now()
	region := "City of London"
	return pgxmock.NewRows([]string{
		"id", "name", "latitude", "longitude", "country", "region", "is_favorite", "created_at", "updated_at",
	}).AddRow(id, "London", 51.5074, -0.1278, "United Kingdom", &region, false, now, now)
}

func TestPostgresLocationRepository_FindExact(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE latitude = $1 AND longitude = $2`)).
			WithArgs(51.5074, -0.1278).
			WillReturnRows(locationRow(1))

		loc, err := repo.FindExact(ctx, 51.5074, -0.1278)
		require.NoError(t, err)
		assert.Equal(t, int64(1), loc.ID)
		assert.Equal(t, "London", loc.Name)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE latitude = $1 AND longitude = $2`)).
			WithArgs(0.0, 0.0).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := repo.FindExact(ctx, 0, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrNotFound))
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresLocationRepository_FindNear(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	ctx := context.Background()

	t.Run("nearest row within tolerance", func(t *testing.T) {
		mockPool.ExpectQuery(regexp.QuoteMeta(`abs(latitude - $1) < $3 AND abs(longitude - $2) < $3`)).
			WithArgs(51.51, -0.12, 0.01).
			WillReturnRows(locationRow(2))

		loc, err := repo.FindNear(ctx, 51.51, -0.12, 0.01)
		require.NoError(t, err)
		assert.Equal(t, int64(2), loc.ID)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("nothing nearby", func(t *testing.T) {
		mockPool.ExpectQuery(regexp.QuoteMeta(`abs(latitude - $1) < $3`)).
			WithArgs(10.0, 10.0, 0.01).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := repo.FindNear(ctx, 10, 10, 0.01)
		assert.True(t, errors.Is(err, types.ErrNotFound))
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresLocationRepository_Create(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	ctx := context.Background()

	region := "City of London"
	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO locations`)).
		WithArgs("London", 51.5074, -0.1278, "United Kingdom", &region, false).
		WillReturnRows(locationRow(7))

	created, err := repo.Create(ctx, types.Location{
		Name:      "London",
		Latitude:  51.5074,
		Longitude: -0.1278,
		Country:   "United Kingdom",
		Region:    &region,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresLocationRepository_Update(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	ctx := context.Background()

	t.Run("partial update", func(t *testing.T) {
		name := "London"
		mockPool.ExpectQuery(regexp.QuoteMeta(`UPDATE locations`)).
			WithArgs(int64(7), &name, (*string)(nil), (*string)(nil), (*bool)(nil)).
			WillReturnRows(locationRow(7))

		updated, err := repo.Update(ctx, 7, types.UpdateLocationParams{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "London", updated.Name)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unknown id maps to ErrNotFound", func(t *testing.T) {
		fav := true
		mockPool.ExpectQuery(regexp.QuoteMeta(`UPDATE locations`)).
			WithArgs(int64(999), (*string)(nil), (*string)(nil), (*string)(nil), &fav).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := repo.Update(ctx, 999, types.UpdateLocationParams{IsFavorite: &fav})
		assert.True(t, errors.Is(err, types.ErrNotFound))
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresLocationRepository_Count(t *testing.T) {
	repo, mockPool := setupRepoTest(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM locations`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.NoError(t, mockPool.ExpectationsWereMet())
}
