package kernel

import "errors"

var (
	// ErrNotManifold is returned when a mesh is not a closed 2-manifold.
	ErrNotManifold = errors.New("mesh is not a closed manifold")

	// ErrReleased is returned when a deleted handle is used.
	ErrReleased = errors.New("manifold handle already released")

	// ErrForeignHandle is returned when a handle from another engine is passed in.
	ErrForeignHandle = errors.New("handle belongs to a different engine")

	// ErrDegenerateHull is returned when hull input spans less than 3 dimensions.
	ErrDegenerateHull = errors.New("hull points are coplanar or coincident")

	// ErrNonFinite is returned for NaN or infinite coordinates.
	ErrNonFinite = errors.New("non-finite coordinate")

	// ErrIndexRange is returned when a triangle index is out of range.
	ErrIndexRange = errors.New("vertex index out of range")
)
