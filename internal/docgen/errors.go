package docgen

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the planning and generation pipeline. Callers
// (the HTTP layer) match with errors.Is and map them to status codes.
var (
	// ErrInvalidArgument covers malformed project ids and empty plans.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound covers missing projects, files, and preferences.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable means the generation endpoint produced no
	// usable output for any item, even after per-item fallback.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
