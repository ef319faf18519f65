package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/query"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// CitySearchProvider is the slice of the weather client the workflow needs.
type CitySearchProvider interface {
	SearchCity(ctx context.Context, query string) ([]types.CandidateLocation, error)
}

// Chooser picks one candidate during an ambiguous resolution. Implementations
// return the zero-based index of the chosen candidate, or ok=false to cancel.
// The CLI implements this with a numbered prompt; the web front end never uses
// it because ambiguity travels back to the browser as a candidate list.
type Chooser interface {
	Choose(candidates []types.CandidateLocation) (index int, ok bool, err error)
}

// Workflow drives a resolution attempt from request to terminal state. Both
// front ends share this machine so the transition rules exist exactly once:
//
//	Start -> Searching -> Resolved | AmbiguousChoice | NotFound | SearchFailed
//	AmbiguousChoice    -> Resolved | Cancelled
//
// Extraction failure on a natural-language query lands in SearchFailed, not
// NotFound: "could not tell what place you meant" and "no such place exists"
// are different answers.
type Workflow struct {
	logger      *slog.Logger
	provider    CitySearchProvider
	locationSvc location.Service
}

func NewWorkflow(provider CitySearchProvider, locationSvc location.Service, logger *slog.Logger) *Workflow {
	return &Workflow{
		logger:      logger,
		provider:    provider,
		locationSvc: locationSvc,
	}
}

// Resolve runs one attempt up to its first terminal or choice state. It only
// returns a non-nil error for infrastructure faults (storage); search and
// extraction failures are encoded in the outcome so callers can render them.
func (w *Workflow) Resolve(ctx context.Context, req types.ResolutionRequest) (types.ResolutionOutcome, error) {
	ctx, span := otel.Tracer("ResolveWorkflow").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("resolve.action", string(req.Action)),
	))
	defer span.End()

	l := w.logger.With(slog.String("method", "Resolve"))

	outcome := types.ResolutionOutcome{
		Action:       req.Action,
		ForecastDays: req.ForecastDays,
		Unit:         req.Unit,
		Query:        req.SearchText(),
	}

	// Raw coordinates bypass search entirely; the location is created with a
	// placeholder name and enriched later from the weather payload.
	if req.Coordinates != nil {
		loc, err := w.locationSvc.FindOrCreate(ctx, location.PlaceholderName,
			req.Coordinates.Lat, req.Coordinates.Lon, "", nil)
		if err != nil {
			if errors.Is(err, types.ErrInvalidCoordinate) {
				outcome.State = types.StateSearchFailed
				outcome.Reason = err.Error()
				return outcome, nil
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "coordinate resolution failed")
			return types.ResolutionOutcome{}, err
		}
		outcome.State = types.StateResolved
		outcome.Location = &loc
		return outcome, nil
	}

	searchText := req.Place
	if searchText == "" {
		place, err := query.Extract(req.Query)
		if err != nil {
			l.InfoContext(ctx, "No place found in query", slog.String("query", req.Query))
			outcome.State = types.StateSearchFailed
			outcome.Reason = fmt.Sprintf("could not find a location in %q", req.Query)
			return outcome, nil
		}
		searchText = place
	}
	outcome.Query = searchText
	span.SetAttributes(attribute.String("resolve.search_text", searchText))

	candidates, err := w.provider.SearchCity(ctx, searchText)
	if err != nil {
		l.WarnContext(ctx, "City search failed",
			slog.String("search_text", searchText),
			slog.Any("error", err),
		)
		span.RecordError(err)
		outcome.State = types.StateSearchFailed
		outcome.Reason = fmt.Sprintf("search for %q failed: %v", searchText, err)
		return outcome, nil
	}

	switch len(candidates) {
	case 0:
		outcome.State = types.StateNotFound
		return outcome, nil
	case 1:
		loc, err := w.locationSvc.ResolveCandidate(ctx, candidates[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "candidate resolution failed")
			return types.ResolutionOutcome{}, err
		}
		outcome.State = types.StateResolved
		outcome.Location = &loc
		return outcome, nil
	default:
		outcome.State = types.StateAmbiguousChoice
		outcome.Candidates = candidates
		return outcome, nil
	}
}

// ResolveChoice completes an AmbiguousChoice outcome with the candidate at the
// given index. An out-of-range index is types.ErrInvalidSelection; the choice
// state survives so the caller can re-prompt.
func (w *Workflow) ResolveChoice(ctx context.Context, outcome types.ResolutionOutcome, index int) (types.ResolutionOutcome, error) {
	ctx, span := otel.Tracer("ResolveWorkflow").Start(ctx, "ResolveChoice", trace.WithAttributes(
		attribute.Int("resolve.choice", index),
	))
	defer span.End()

	if outcome.State != types.StateAmbiguousChoice {
		return types.ResolutionOutcome{}, fmt.Errorf("%w: no choice pending", types.ErrInvalidSelection)
	}
	if index < 0 || index >= len(outcome.Candidates) {
		return types.ResolutionOutcome{}, fmt.Errorf("%w: index %d of %d candidates",
			types.ErrInvalidSelection, index, len(outcome.Candidates))
	}

	loc, err := w.locationSvc.ResolveCandidate(ctx, outcome.Candidates[index])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate resolution failed")
		return types.ResolutionOutcome{}, err
	}

	outcome.State = types.StateResolved
	outcome.Location = &loc
	outcome.Candidates = nil
	return outcome, nil
}

// Cancel turns an AmbiguousChoice outcome into the Cancelled terminal state.
func (w *Workflow) Cancel(outcome types.ResolutionOutcome) types.ResolutionOutcome {
	outcome.State = types.StateCancelled
	outcome.Candidates = nil
	return outcome
}

// Run drives a full attempt, consulting the chooser whenever the search is
// ambiguous. Used by the CLI; the web front end calls Resolve and
// ResolveSelection across two HTTP requests instead.
func (w *Workflow) Run(ctx context.Context, req types.ResolutionRequest, chooser Chooser) (types.ResolutionOutcome, error) {
	outcome, err := w.Resolve(ctx, req)
	if err != nil {
		return types.ResolutionOutcome{}, err
	}
	if outcome.State != types.StateAmbiguousChoice {
		return outcome, nil
	}

	for {
		index, ok, err := chooser.Choose(outcome.Candidates)
		if err != nil {
			return types.ResolutionOutcome{}, fmt.Errorf("choice failed: %w", err)
		}
		if !ok {
			return w.Cancel(outcome), nil
		}

		resolved, err := w.ResolveChoice(ctx, outcome, index)
		if err != nil {
			if errors.Is(err, types.ErrInvalidSelection) {
				w.logger.DebugContext(ctx, "Rejecting out-of-range choice", slog.Int("index", index))
				continue
			}
			return types.ResolutionOutcome{}, err
		}
		return resolved, nil
	}
}
