package solid

import (
	"errors"
	"fmt"

	"github.com/chazu/brep/pkg/kernel"
)

var (
	// ErrNonFinite is kernel.ErrNonFinite, so either name matches with
	// errors.Is.
	ErrNonFinite = kernel.ErrNonFinite
	// ErrDegenerate is returned for a triangle whose corners coincide.
	ErrDegenerate = errors.New("degenerate triangle")
	// ErrEngineMismatch is returned when boolean operands live in
	// different engines.
	ErrEngineMismatch = errors.New("solid: operands belong to different engines")
	// ErrUnknownFace is returned when a face name is not present.
	ErrUnknownFace = errors.New("solid: unknown face")
)

// AuthoringError reports a rejected authoring call.
//
// The underlying sentinel (ErrNonFinite, ErrDegenerate) is available via
// errors.Is.
type AuthoringError struct {
	Op   string
	Name string
	Err  error
}

func (e *AuthoringError) Error() string {
	return fmt.Sprintf("solid: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *AuthoringError) Unwrap() error { return e.Err }
