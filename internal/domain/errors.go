package domain

import "errors"

// Failure taxonomy shared across the pipeline. Callers match with errors.Is;
// wrapping sites add context with fmt.Errorf("...: %w", err).
var (
	// ErrInsufficientStations: zero usable samples for a timestamp. Aborts
	// that timestamp's field; the batch continues for other timestamps.
	ErrInsufficientStations = errors.New("insufficient stations")

	// ErrDegenerateRange: global max equals global min. Rendering proceeds
	// with a constant mid-scale color and the batch is flagged.
	ErrDegenerateRange = errors.New("degenerate value range")

	// ErrInvalidBoundary: unclosed, zero-area, or degenerate boundary
	// polygon. Recovery is a fallback rectangular extent plus a warning.
	ErrInvalidBoundary = errors.New("invalid boundary polygon")

	// ErrOutOfBoundsGrid: no grid cell falls inside the boundary, so there
	// is nothing renderable for the request.
	ErrOutOfBoundsGrid = errors.New("no grid cell inside boundary")

	// ErrMissingStationAcrossWindow: an animation step lost every station
	// to endpoint mismatch. Only that synthetic step is skipped.
	ErrMissingStationAcrossWindow = errors.New("no station present at both interpolation endpoints")

	// ErrMalformedSample: missing or non-numeric coordinate or value. The
	// offending record is skipped and ingestion continues.
	ErrMalformedSample = errors.New("malformed sample")
)
