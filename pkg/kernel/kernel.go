// Package kernel defines the contract between the solid model and the
// mesh engine that performs booleans and hulls on its behalf.
// Implementations (csg, manifold) sit behind this interface so that the
// rest of the system never depends on a particular engine.
package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Manifold is an opaque engine-side mesh handle. Handles are a manually
// managed resource: whoever owns one must pass it to Engine.Delete before
// dropping it.
type Manifold interface {
	// NumTri returns the triangle count of the handle's mesh.
	NumTri() int
}

// Engine is the manifold-mesh engine interface.
type Engine interface {
	// Build creates a handle from authored buffers. It fails with
	// ErrNotManifold when the mesh is not a closed 2-manifold.
	Build(m *MeshGL) (Manifold, error)

	// Boolean operations. Inputs are never consumed.
	Union(a, b Manifold) (Manifold, error)
	Subtract(a, b Manifold) (Manifold, error)
	Intersect(a, b Manifold) (Manifold, error)
	Difference(a, b Manifold) (Manifold, error)

	// Hull returns the convex hull of points. All hull triangles carry a
	// single freshly reserved face ID.
	Hull(points []v3.Vec) (Manifold, error)

	// ReserveIDs reserves n consecutive face IDs and returns the first.
	ReserveIDs(n int) uint32

	SetTolerance(h Manifold, tolerance float64) (Manifold, error)
	Simplify(h Manifold, tolerance float64) (Manifold, error)

	// GetMesh reads back vertices, triangles and per-triangle face IDs.
	GetMesh(h Manifold) (*MeshGL, error)

	// Delete releases the handle. Deleting nil or an already released
	// handle is a no-op.
	Delete(h Manifold)
}
