package types

import "errors"

// Sentinel errors shared across the resolution core. Callers are expected to
// test these with errors.Is after layers have wrapped them with context.
var (
	// ErrNoMatch means the natural-language extractor found no place text.
	// Callers must re-prompt the user, never assume "no location".
	ErrNoMatch = errors.New("no location pattern matched")

	// ErrInvalidCoordinate covers out-of-range or non-finite latitude/longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidSelection means a disambiguation choice could not be parsed or
	// does not correspond to a listed candidate.
	ErrInvalidSelection = errors.New("invalid location selection")

	// ErrNotFound is returned by stores when no record matches a lookup.
	ErrNotFound = errors.New("record not found")

	// ErrProviderUnavailable marks transient search-backend failures
	// (unreachable, timed out, non-2xx). Retry policy belongs to the caller.
	ErrProviderUnavailable = errors.New("city search provider unavailable")
)
