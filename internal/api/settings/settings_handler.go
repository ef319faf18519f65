package settings

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewSettingsHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Get handles GET /settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SettingsHandler").Start(r.Context(), "Get")
	defer span.End()

	current, err := h.service.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to load settings")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, current)
}

// UpdateRequest is the PUT /settings body; absent fields are left unchanged.
type UpdateRequest struct {
	TemperatureUnit   *string `json:"temperature_unit,omitempty"`
	WindSpeedUnit     *string `json:"wind_speed_unit,omitempty"`
	DefaultLocationID *int64  `json:"default_location_id,omitempty"`
	SaveHistory       *bool   `json:"save_history,omitempty"`
	MaxHistoryDays    *int    `json:"max_history_days,omitempty"`
	ForecastDays      *int    `json:"forecast_days,omitempty"`
}

// Update handles PUT /settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SettingsHandler").Start(r.Context(), "Update")
	defer span.End()

	l := h.logger.With(slog.String("method", "Update"))

	var body UpdateRequest
	if err := api.DecodeJSONBody(w, r, &body); err != nil {
		l.WarnContext(ctx, "Invalid settings body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.Update(ctx, types.UpdateSettingsParams{
		TemperatureUnit:   body.TemperatureUnit,
		WindSpeedUnit:     body.WindSpeedUnit,
		DefaultLocationID: body.DefaultLocationID,
		SaveHistory:       body.SaveHistory,
		MaxHistoryDays:    body.MaxHistoryDays,
		ForecastDays:      body.ForecastDays,
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to update settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to update settings")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}
