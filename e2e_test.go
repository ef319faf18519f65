package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/resolve"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/weather"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// memLocationRepo is an in-memory location.Repository for end-to-end flows
// that should not need Postgres.
type memLocationRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]types.Location
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{rows: make(map[int64]types.Location)}
}

func (r *memLocationRepo) FindExact(_ context.Context, lat, lon float64) (*types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, loc := range r.rows {
		if loc.Latitude == lat && loc.Longitude == lon {
			snapshot := loc
			return &snapshot, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *memLocationRepo) FindNear(_ context.Context, lat, lon, tolerance float64) (*types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		loc := r.rows[id]
		same, err := location.SamePlace(types.Coordinates{Lat: lat, Lon: lon}, loc.Coordinates(), tolerance)
		if err != nil {
			return nil, err
		}
		if same {
			snapshot := loc
			return &snapshot, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *memLocationRepo) FindByName(_ context.Context, name string) (*types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, loc := range r.rows {
		if loc.Name == name {
			snapshot := loc
			return &snapshot, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *memLocationRepo) GetByID(_ context.Context, id int64) (*types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.rows[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	snapshot := loc
	return &snapshot, nil
}

func (r *memLocationRepo) GetAll(_ context.Context, limit, offset int) ([]types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []types.Location
	for _, loc := range r.rows {
		all = append(all, loc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memLocationRepo) GetFavorites(_ context.Context) ([]types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var favorites []types.Location
	for _, loc := range r.rows {
		if loc.IsFavorite {
			favorites = append(favorites, loc)
		}
	}
	return favorites, nil
}

func (r *memLocationRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *memLocationRepo) Create(_ context.Context, loc types.Location) (*types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	loc.ID = r.nextID
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = loc.CreatedAt
	r.rows[loc.ID] = loc
	snapshot := loc
	return &snapshot, nil
}

func (r *memLocationRepo) Update(_ context.Context, id int64, params types.UpdateLocationParams) (*types.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.rows[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	if params.Name != nil {
		loc.Name = *params.Name
	}
	if params.Country != nil {
		loc.Country = *params.Country
	}
	if params.Region != nil {
		loc.Region = params.Region
	}
	if params.IsFavorite != nil {
		loc.IsFavorite = *params.IsFavorite
	}
	loc.UpdatedAt = time.Now()
	r.rows[id] = loc
	snapshot := loc
	return &snapshot, nil
}

var _ location.Repository = (*memLocationRepo)(nil)

// searchServer fakes the provider's search endpoint with canned results.
func searchServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "London":
			w.Write([]byte(`[
                {"name":"London","region":"City of London, Greater London","country":"United Kingdom","lat":51.52,"lon":-0.11},
                {"name":"London","region":"Ontario","country":"Canada","lat":42.98,"lon":-81.25}
            ]`))
		case "Reykjavik":
			w.Write([]byte(`[{"name":"Reykjavik","region":"Hofudhborgarsvaedhid","country":"Iceland","lat":64.15,"lon":-21.95}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupE2E(t *testing.T) (*resolve.Workflow, location.Service, *memLocationRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := weather.NewClient(weather.ClientConfig{
		BaseURL: searchServer(t).URL,
		APIKey:  "test-key",
	}, logger)
	require.NoError(t, err)

	repo := newMemLocationRepo()
	locationSvc := location.NewLocationService(repo, location.DefaultTolerance, logger)
	workflow := resolve.NewWorkflow(client, locationSvc, logger)
	return workflow, locationSvc, repo
}

// TestDisambiguationFlow runs the complete London/London-Ontario journey the
// web front end takes: search, get a candidate list back, post a selection.
func TestDisambiguationFlow(t *testing.T) {
	workflow, _, repo := setupE2E(t)
	ctx := context.Background()

	outcome, err := workflow.Resolve(ctx, types.QueryRequest("What's the weather in London?", types.ActionShowCurrent))
	require.NoError(t, err)
	require.Equal(t, types.StateAmbiguousChoice, outcome.State)
	require.Len(t, outcome.Candidates, 2)

	// Nothing persists while the choice is pending.
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	selected, err := workflow.ResolveSelection(ctx, "42.98,-81.25,London,Ontario,Canada", types.ActionShowCurrent)
	require.NoError(t, err)
	require.Equal(t, types.StateResolved, selected.State)
	assert.Equal(t, "Canada", selected.Location.Country)

	// Selecting the same candidate again reuses the stored row.
	again, err := workflow.ResolveSelection(ctx, "42.98,-81.25,London,Ontario,Canada", types.ActionShowCurrent)
	require.NoError(t, err)
	assert.Equal(t, selected.Location.ID, again.Location.ID)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNearbyCoordinatesReuseLocation(t *testing.T) {
	workflow, locationSvc, repo := setupE2E(t)
	ctx := context.Background()

	outcome, err := workflow.Resolve(ctx, types.PlaceRequest("Reykjavik", types.ActionShowCurrent))
	require.NoError(t, err)
	require.Equal(t, types.StateResolved, outcome.State)
	first := outcome.Location

	// Slightly different coordinates from a later provider payload must
	// match the stored row instead of creating a near-duplicate.
	second, err := locationSvc.FindOrCreate(ctx, "Reykjavik", 64.154, -21.946, "Iceland", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInvalidSelectionRejected(t *testing.T) {
	workflow, _, repo := setupE2E(t)
	ctx := context.Background()

	_, err := workflow.ResolveSelection(ctx, "999,-999,Nowhere,,", types.ActionShowCurrent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidSelection))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnknownPlaceLandsInNotFound(t *testing.T) {
	workflow, _, _ := setupE2E(t)

	outcome, err := workflow.Resolve(context.Background(), types.PlaceRequest("Xyzzyville", types.ActionShowCurrent))
	require.NoError(t, err)
	assert.Equal(t, types.StateNotFound, outcome.State)
}

func TestCoordinateRequestCreatesPlaceholder(t *testing.T) {
	workflow, _, _ := setupE2E(t)

	outcome, err := workflow.Resolve(context.Background(), types.CoordinateRequest(35.6895, 139.6917, types.ActionShowCurrent))
	require.NoError(t, err)
	require.Equal(t, types.StateResolved, outcome.State)
	assert.Equal(t, location.PlaceholderName, outcome.Location.Name)
}
