package interp

import (
	"fmt"
	"strings"
)

// CycleError reports a circular interpolation dependency. Chain holds
// the ordered paths from the first occurrence of the repeated path
// back to itself, so a cycle over N distinct paths has N+1 entries.
type CycleError struct {
	Chain []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "circular interpolation detected: " + strings.Join(e.Chain, " -> ")
}

// ResolveError reports a marker that could not be resolved.
type ResolveError struct {
	// Path is the dotted path of the value holding the marker.
	Path string

	// Marker is the raw marker content without the delimiters.
	Marker string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve ((%s)) at %s: %v", e.Marker, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Err
}
