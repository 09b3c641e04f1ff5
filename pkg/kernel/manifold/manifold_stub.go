//go:build !manifold

// Package manifold binds the Manifold C library as a kernel.Engine. When the
// "manifold" build tag is not set this stub is compiled instead and New
// always fails; use the pure-Go csg engine.
//
// Build with: go build -tags=manifold
package manifold

import "github.com/chazu/brep/pkg/kernel"

// New returns ErrUnavailable. Build with -tags=manifold to enable.
func New(ids kernel.IDAllocator) (kernel.Engine, error) {
	return nil, ErrUnavailable
}
