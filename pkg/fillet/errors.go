package fillet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRadius = errors.New("fillet: radius must be positive")
	// ErrTangentFaces is returned for an edge whose faces meet without a
	// crease, leaving nothing to round.
	ErrTangentFaces = errors.New("fillet: faces are tangent at edge")
	// ErrFoldedFaces is returned for an edge whose faces fold back onto
	// each other.
	ErrFoldedFaces = errors.New("fillet: faces fold back at edge")
	// ErrMixedCorner is recorded for a vertex where inset and outset
	// fillets meet; no corner hull is built there.
	ErrMixedCorner = errors.New("fillet: inset and outset fillets share a corner")
)

// EdgeError records why one edge selection was skipped.
type EdgeError struct {
	Edge string
	Err  error
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("fillet: edge %s: %v", e.Edge, e.Err)
}

func (e *EdgeError) Unwrap() error { return e.Err }
