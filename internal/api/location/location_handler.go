package location

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
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewLocationHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// GetSaved handles GET /locations - recently saved locations.
func (h *Handler) GetSaved(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "GetSaved")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetSaved"))

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	locations, err := h.service.Saved(ctx, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list saved locations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to list locations")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, locations)
}

// GetFavorites handles GET /locations/favorites.
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "GetFavorites")
	defer span.End()

	favorites, err := h.service.Favorites(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to list favorites")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, favorites)
}

// ToggleFavorite handles POST /locations/{locationID}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "ToggleFavorite")
	defer span.End()

	l := h.logger.With(slog.String("method", "ToggleFavorite"))

	id, err := strconv.ParseInt(chi.URLParam(r, "locationID"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid location ID")
		return
	}
	span.SetAttributes(attribute.Int64("location.id", id))

	updated, err := h.service.ToggleFavorite(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "location not found")
			return
		}
		l.ErrorContext(ctx, "Failed to toggle favorite", slog.Any("error", err), slog.Int64("id", id))
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}

	l.InfoContext(ctx, "Favorite toggled",
		slog.Int64("id", updated.ID),
		slog.Bool("is_favorite", updated.IsFavorite),
	)
	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}
