package resolve

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/xtinalang/weather-dashboard-sub000/app/observability/metrics"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

type Handler struct {
	logger   *slog.Logger
	workflow *Workflow
	metrics  *metrics.AppMetrics
}

func NewResolveHandler(workflow *Workflow, m *metrics.AppMetrics, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		workflow: workflow,
		metrics:  m,
	}
}

// SearchRequest is the POST /resolve/search body. Coordinates win over Place,
// Place wins over Query, mirroring ResolutionRequest precedence.
type SearchRequest struct {
	Query        string   `json:"query,omitempty"`
	Place        string   `json:"place,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Action       string   `json:"action,omitempty"`
	ForecastDays int      `json:"forecast_days,omitempty"`
	Unit         string   `json:"unit,omitempty"`
}

// SelectRequest is the POST /resolve/select body. Selection carries the
// "lat,lon,name,region,country" tuple rendered into the candidate form.
type SelectRequest struct {
	Selection string `json:"selection"`
	Action    string `json:"action,omitempty"`
}

// Search handles POST /resolve/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ResolveHandler").Start(r.Context(), "Search")
	defer span.End()

	l := h.logger.With(slog.String("method", "Search"))
	start := time.Now()

	var body SearchRequest
	if err := api.DecodeJSONBody(w, r, &body); err != nil {
		l.WarnContext(ctx, "Invalid search request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req := types.ResolutionRequest{
		Place:        body.Place,
		Query:        body.Query,
		Action:       types.ResolutionAction(body.Action),
		ForecastDays: body.ForecastDays,
		Unit:         types.NormalizeUnit(body.Unit),
	}
	if req.Action == "" {
		req.Action = types.ActionShowCurrent
	}
	if body.Lat != nil && body.Lon != nil {
		req.Coordinates = &types.Coordinates{Lat: *body.Lat, Lon: *body.Lon}
	}
	if req.Coordinates == nil && req.Place == "" && req.Query == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "one of query, place or lat/lon is required")
		return
	}

	outcome, err := h.workflow.Resolve(ctx, req)

	h.metrics.ResolveDurationSeconds.Record(ctx, time.Since(start).Seconds())
	h.metrics.SearchRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", string(outcome.State)),
	))

	if err != nil {
		l.ErrorContext(ctx, "Resolution failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to resolve location")
		return
	}
	if outcome.State == types.StateSearchFailed {
		h.metrics.ProviderErrorsTotal.Add(ctx, 1)
	}

	l.InfoContext(ctx, "Resolution completed", slog.String("state", string(outcome.State)))
	api.WriteJSONResponse(w, r, http.StatusOK, outcome)
}

// Select handles POST /resolve/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ResolveHandler").Start(r.Context(), "Select")
	defer span.End()

	l := h.logger.With(slog.String("method", "Select"))

	var body SelectRequest
	if err := api.DecodeJSONBody(w, r, &body); err != nil {
		l.WarnContext(ctx, "Invalid select request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	action := types.ResolutionAction(body.Action)
	if action == "" {
		action = types.ActionShowCurrent
	}

	outcome, err := h.workflow.ResolveSelection(ctx, body.Selection, action)
	if err != nil {
		if errors.Is(err, types.ErrInvalidSelection) {
			l.WarnContext(ctx, "Rejected invalid selection", slog.String("selection", body.Selection))
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Selection resolution failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "selection failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to resolve selection")
		return
	}

	l.InfoContext(ctx, "Selection resolved", slog.Int64("location_id", outcome.Location.ID))
	api.WriteJSONResponse(w, r, http.StatusOK, outcome)
}
