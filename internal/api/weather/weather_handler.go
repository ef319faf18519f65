package weather

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

type Handler struct {
	logger      *slog.Logger
	service     Service
	locationSvc location.Service
}

func NewWeatherHandler(service Service, locationSvc location.Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		locationSvc: locationSvc,
	}
}

// weatherView is the handler-level response: payload plus the (possibly
// enriched) stored location it belongs to.
type weatherView struct {
	Location types.Location         `json:"location"`
	Weather  *types.WeatherResponse `json:"weather"`
}

// GetByCoordinates handles GET /weather/{lat}/{lon}?days=N. The coordinates
// are resolved through find-or-create so repeat lookups reuse the stored row.
func (h *Handler) GetByCoordinates(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetByCoordinates")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetByCoordinates"))

	lat, err := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(chi.URLParam(r, "lon"), 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid longitude")
		return
	}
	span.SetAttributes(
		attribute.Float64("location.lat", lat),
		attribute.Float64("location.lon", lon),
	)

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > 7 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "days must be between 1 and 7")
			return
		}
	}

	loc, err := h.locationSvc.FindOrCreate(ctx, location.PlaceholderName, lat, lon, "", nil)
	if err != nil {
		if errors.Is(err, types.ErrInvalidCoordinate) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to resolve coordinates", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to resolve location")
		return
	}

	payload, loc, err := h.service.Forecast(ctx, loc, days)
	if err != nil {
		if errors.Is(err, types.ErrProviderUnavailable) {
			api.ErrorResponse(w, r, http.StatusBadGateway, "weather provider unavailable")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch weather", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to fetch weather")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, weatherView{Location: loc, Weather: payload})
}

// GetHistory handles GET /locations/{locationID}/history?limit=N.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetHistory")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "locationID"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid location ID")
		return
	}
	span.SetAttributes(attribute.Int64("location.id", id))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	records, err := h.service.History(ctx, id, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load weather history", slog.Any("error", err), slog.Int64("id", id))
		span.RecordError(err)
		span.SetStatus(codes.Error, "history load failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to load history")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, records)
}
