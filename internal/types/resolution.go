package types

// ResolutionAction tags what the caller wants done once a location resolves.
type ResolutionAction string

const (
	ActionShowCurrent  ResolutionAction = "show-current"
	ActionShowForecast ResolutionAction = "show-forecast"
	ActionAnswerQuery  ResolutionAction = "answer-nl-query"
)

// ResolutionState names the terminal and intermediate states of one
// disambiguation attempt.
type ResolutionState string

const (
	StateResolved        ResolutionState = "resolved"
	StateAmbiguousChoice ResolutionState = "ambiguous-choice"
	StateNotFound        ResolutionState = "not-found"
	StateSearchFailed    ResolutionState = "search-failed"
	StateCancelled       ResolutionState = "cancelled"
)

// ResolutionRequest describes one resolution attempt. Exactly one of
// Coordinates, Place or Query should be set; they are tried in that order.
// The request lives for a single attempt and is never persisted.
type ResolutionRequest struct {
	// Coordinates skips search entirely when present.
	Coordinates *Coordinates
	// Place is a literal place string searched as-is.
	Place string
	// Query is a natural-language sentence run through the extractor first.
	Query string

	Action       ResolutionAction
	ForecastDays int
	Unit         string
}

// CoordinateRequest builds a raw-coordinate resolution request.
func CoordinateRequest(lat, lon float64, action ResolutionAction) ResolutionRequest {
	return ResolutionRequest{
		Coordinates: &Coordinates{Lat: lat, Lon: lon},
		Action:      action,
	}
}

// PlaceRequest builds a direct place-string resolution request.
func PlaceRequest(place string, action ResolutionAction) ResolutionRequest {
	return ResolutionRequest{Place: place, Action: action}
}

// QueryRequest builds a natural-language resolution request.
func QueryRequest(query string, action ResolutionAction) ResolutionRequest {
	return ResolutionRequest{Query: query, Action: action}
}

// SearchText returns the text a search would be based on, for error messages.
func (r ResolutionRequest) SearchText() string {
	if r.Place != "" {
		return r.Place
	}
	return r.Query
}

// ResolutionOutcome is the tagged result of a resolution attempt. Exactly one
// of the variant fields is meaningful, keyed by State:
//
//	StateResolved        -> Location (plus Action/ForecastDays carried forward)
//	StateAmbiguousChoice -> Candidates
//	StateNotFound        -> Query (the text nothing matched)
//	StateSearchFailed    -> Reason (and Query)
//	StateCancelled       -> nothing further
type ResolutionOutcome struct {
	State        ResolutionState     `json:"state"`
	Location     *Location           `json:"location,omitempty"`
	Candidates   []CandidateLocation `json:"candidates,omitempty"`
	Action       ResolutionAction    `json:"action,omitempty"`
	ForecastDays int                 `json:"forecast_days,omitempty"`
	Unit         string              `json:"unit,omitempty"`
	Query        string              `json:"query,omitempty"`
	Reason       string              `json:"reason,omitempty"`
}
