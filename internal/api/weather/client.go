package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

const (
	defaultBaseURL  = "https://api.weatherapi.com/v1"
	maxForecastDays = 7
)

// Client talks to the weatherapi.com HTTP API: the /search.json endpoint
// backs city disambiguation and /forecast.json returns current conditions
// plus the daily forecast in one payload. All responses are decoded into the
// typed structures in internal/types at this boundary; nothing downstream
// sees raw JSON.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string

	// searchCache keeps recent city-search results; weather payloads are
	// deliberately not cached.
	searchCache *cache.Cache
	circuit     *gobreaker.CircuitBreaker
	validate    *validator.Validate
}

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	SearchCacheTTL time.Duration
}

func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("weather API key not found, set WEATHER_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SearchCacheTTL <= 0 {
		cfg.SearchCacheTTL = 15 * time.Minute
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		logger:      logger,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		searchCache: cache.New(cfg.SearchCacheTTL, cfg.SearchCacheTTL),
		circuit:     cb,
		validate:    validator.New(),
	}, nil
}

// SearchCity queries /search.json and returns typed, validated candidates.
// Faults (network, timeout, non-2xx, open breaker) are reported as
// types.ErrProviderUnavailable; an empty slice is a legitimate result.
func (c *Client) SearchCity(ctx context.Context, query string) ([]types.CandidateLocation, error) {
	ctx, span := otel.Tracer("WeatherClient").Start(ctx, "SearchCity", trace.WithAttributes(
		attribute.String("search.query", query),
	))
	defer span.End()

	l := c.logger.With(slog.String("method", "SearchCity"), slog.String("query", query))

	cacheKey := strings.ToLower(strings.TrimSpace(query))
	if cached, found := c.searchCache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.([]types.CandidateLocation), nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)

	var raw []types.CandidateLocation
	if err := c.getJSON(ctx, "/search.json", params, &raw); err != nil {
		l.ErrorContext(ctx, "City search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}

	candidates := make([]types.CandidateLocation, 0, len(raw))
	for _, cand := range raw {
		if err := c.validate.Struct(cand); err != nil {
			l.WarnContext(ctx, "Dropping malformed search candidate",
				slog.String("name", cand.Name),
				slog.Any("error", err),
			)
			continue
		}
		candidates = append(candidates, cand)
	}

	c.searchCache.Set(cacheKey, candidates, cache.DefaultExpiration)
	l.DebugContext(ctx, "City search completed", slog.Int("count", len(candidates)))
	return candidates, nil
}

// GetForecast queries /forecast.json for the coordinates. Days are clamped
// to the provider's supported 1..7 range.
func (c *Client) GetForecast(ctx context.Context, coords types.Coordinates, days int) (*types.WeatherResponse, error) {
	ctx, span := otel.Tracer("WeatherClient").Start(ctx, "GetForecast", trace.WithAttributes(
		attribute.Float64("location.lat", coords.Lat),
		attribute.Float64("location.lon", coords.Lon),
		attribute.Int("forecast.days", days),
	))
	defer span.End()

	if days < 1 {
		days = 1
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", fmt.Sprintf("%v,%v", coords.Lat, coords.Lon))
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("aqi", "no")

	var payload types.WeatherResponse
	if err := c.getJSON(ctx, "/forecast.json", params, &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast request failed")
		return nil, err
	}
	return &payload, nil
}

// GetCurrent returns the current-conditions payload for the coordinates.
func (c *Client) GetCurrent(ctx context.Context, coords types.Coordinates) (*types.WeatherResponse, error) {
	return c.GetForecast(ctx, coords, 1)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	_, err := c.circuit.Execute(func() (any, error) {
		reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrProviderUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: unexpected status %d from %s",
				types.ErrProviderUnavailable, resp.StatusCode, endpoint)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: malformed payload from %s: %v",
				types.ErrProviderUnavailable, endpoint, err)
		}
		return nil, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return fmt.Errorf("%w: circuit breaker open", types.ErrProviderUnavailable)
		}
		return err
	}
	return nil
}
