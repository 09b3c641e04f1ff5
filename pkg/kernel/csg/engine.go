// Package csg is a pure-Go implementation of kernel.Engine. Booleans are
// computed with BSP trees over convex polygons; every polygon carries the
// face ID of the triangle it came from, so face identity survives any
// number of operations. Readback welds the polygon soup into an indexed
// mesh and repairs T-junctions.
package csg

import (
	"fmt"
	"sync/atomic"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Engine = (*Engine)(nil)
var _ kernel.Manifold = (*handle)(nil)

// DefaultEpsilon is the plane classification and welding tolerance.
const DefaultEpsilon = 1e-5

// handle is the engine-side mesh.
type handle struct {
	eng      *Engine
	polys    []polygon
	tol      float64
	mesh     *kernel.MeshGL
	open     bool
	released bool
}

// NumTri returns the triangle count of the welded readback.
func (h *handle) NumTri() int {
	if h.released {
		return 0
	}
	return h.readback().TriangleCount()
}

func (h *handle) readback() *kernel.MeshGL {
	if h.mesh == nil {
		h.mesh = toMesh(h.polys, h.tol)
		tris := make([][3]uint32, h.mesh.TriangleCount())
		for t := range tris {
			tris[t] = h.mesh.Triangle(t)
		}
		h.open = !closed(tris)
	}
	return h.mesh
}

// Engine implements kernel.Engine.
type Engine struct {
	ids  kernel.IDAllocator
	eps  float64
	live atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithAllocator sets the face ID allocator. Solids that will be combined
// must be authored against engines sharing one allocator.
func WithAllocator(a kernel.IDAllocator) Option {
	return func(e *Engine) {
		if a != nil {
			e.ids = a
		}
	}
}

// WithEpsilon sets the classification and welding tolerance.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.eps = eps
		}
	}
}

// New creates an Engine. Without options it uses the process-wide
// allocator and DefaultEpsilon.
func New(opts ...Option) *Engine {
	e := &Engine{ids: kernel.DefaultAllocator(), eps: DefaultEpsilon}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Live returns the number of handles created and not yet deleted.
func (e *Engine) Live() int {
	return int(e.live.Load())
}

func (e *Engine) newHandle(polys []polygon, tol float64) *handle {
	e.live.Add(1)
	return &handle{eng: e, polys: polys, tol: tol}
}

func (e *Engine) unwrap(m kernel.Manifold) (*handle, error) {
	h, ok := m.(*handle)
	if !ok || h == nil || h.eng != e {
		return nil, kernel.ErrForeignHandle
	}
	if h.released {
		return nil, kernel.ErrReleased
	}
	return h, nil
}

// Build implements kernel.Engine.
func (e *Engine) Build(m *kernel.MeshGL) (kernel.Manifold, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("csg: build: %w", err)
	}
	if m.IsEmpty() {
		return e.newHandle(nil, e.eps), nil
	}

	pts := make([]v3.Vec, m.VertexCount())
	for i := range pts {
		pts[i] = m.Position(i)
	}
	verts, remap := weld(pts, e.eps)
	tris := make([][3]uint32, m.TriangleCount())
	ids := make([]uint32, len(tris))
	for t := range tris {
		tri := m.Triangle(t)
		tris[t] = [3]uint32{remap[tri[0]], remap[tri[1]], remap[tri[2]]}
		if len(m.FaceID) > 0 {
			ids[t] = m.FaceID[t]
		}
	}
	tris, ids = dropDegenerate(verts, tris, ids, e.eps)
	if !closed(tris) {
		verts, tris, ids = splitTJunctions(verts, tris, ids, e.eps)
		if !closed(tris) {
			return nil, fmt.Errorf("csg: build: %w", kernel.ErrNotManifold)
		}
	}
	return e.newHandle(trianglesToPolys(verts, tris, ids), e.eps), nil
}

func trianglesToPolys(verts []v3.Vec, tris [][3]uint32, ids []uint32) []polygon {
	polys := make([]polygon, 0, len(tris))
	for i, t := range tris {
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		pl, ok := planeFromPoints(a, b, c)
		if !ok {
			continue
		}
		polys = append(polys, polygon{verts: []v3.Vec{a, b, c}, plane: pl, id: ids[i]})
	}
	return polys
}

type boolOp func(a, b []polygon, eps float64) []polygon

func (e *Engine) boolean(name string, op boolOp, a, b kernel.Manifold) (kernel.Manifold, error) {
	ha, err := e.unwrap(a)
	if err != nil {
		return nil, fmt.Errorf("csg: %s: first operand: %w", name, err)
	}
	hb, err := e.unwrap(b)
	if err != nil {
		return nil, fmt.Errorf("csg: %s: second operand: %w", name, err)
	}
	tol := ha.tol
	if hb.tol > tol {
		tol = hb.tol
	}
	return e.newHandle(op(ha.polys, hb.polys, e.eps), tol), nil
}

// Union implements kernel.Engine.
func (e *Engine) Union(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("union", union, a, b)
}

// Subtract implements kernel.Engine.
func (e *Engine) Subtract(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("subtract", subtract, a, b)
}

// Intersect implements kernel.Engine.
func (e *Engine) Intersect(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("intersect", intersect, a, b)
}

// Difference is an alias of Subtract.
func (e *Engine) Difference(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("difference", subtract, a, b)
}

// Hull implements kernel.Engine.
func (e *Engine) Hull(points []v3.Vec) (kernel.Manifold, error) {
	verts, tris, err := convexHull(points, e.eps)
	if err != nil {
		return nil, fmt.Errorf("csg: hull of %d points: %w", len(points), err)
	}
	id := e.ids.Reserve(1)
	ids := make([]uint32, len(tris))
	for i := range ids {
		ids[i] = id
	}
	return e.newHandle(trianglesToPolys(verts, tris, ids), e.eps), nil
}

// ReserveIDs implements kernel.Engine.
func (e *Engine) ReserveIDs(n int) uint32 {
	return e.ids.Reserve(n)
}

// SetTolerance returns a new handle that welds its readback at tolerance.
func (e *Engine) SetTolerance(m kernel.Manifold, tolerance float64) (kernel.Manifold, error) {
	h, err := e.unwrap(m)
	if err != nil {
		return nil, fmt.Errorf("csg: set tolerance: %w", err)
	}
	if tolerance < e.eps {
		tolerance = e.eps
	}
	return e.newHandle(clonePolys(h.polys), tolerance), nil
}

// Simplify returns a new handle rebuilt from the readback welded at
// tolerance, with degenerate triangles removed.
func (e *Engine) Simplify(m kernel.Manifold, tolerance float64) (kernel.Manifold, error) {
	h, err := e.unwrap(m)
	if err != nil {
		return nil, fmt.Errorf("csg: simplify: %w", err)
	}
	if tolerance < h.tol {
		tolerance = h.tol
	}
	mesh := toMesh(h.polys, tolerance)
	verts := make([]v3.Vec, mesh.VertexCount())
	for i := range verts {
		verts[i] = mesh.Position(i)
	}
	tris := make([][3]uint32, mesh.TriangleCount())
	for t := range tris {
		tris[t] = mesh.Triangle(t)
	}
	return e.newHandle(trianglesToPolys(verts, tris, mesh.FaceID), tolerance), nil
}

// GetMesh implements kernel.Engine. The returned mesh is a copy. A readback
// that repair could not close is reported as kernel.ErrNotManifold.
func (e *Engine) GetMesh(m kernel.Manifold) (*kernel.MeshGL, error) {
	h, err := e.unwrap(m)
	if err != nil {
		return nil, fmt.Errorf("csg: get mesh: %w", err)
	}
	src := h.readback()
	if h.open {
		return nil, fmt.Errorf("csg: get mesh: %w", kernel.ErrNotManifold)
	}
	return &kernel.MeshGL{
		NumProp:        src.NumProp,
		VertProperties: append([]float64(nil), src.VertProperties...),
		TriVerts:       append([]uint32(nil), src.TriVerts...),
		FaceID:         append([]uint32(nil), src.FaceID...),
	}, nil
}

// Delete implements kernel.Engine.
func (e *Engine) Delete(m kernel.Manifold) {
	h, ok := m.(*handle)
	if !ok || h == nil || h.released || h.eng != e {
		return
	}
	h.released = true
	h.polys = nil
	h.mesh = nil
	e.live.Add(-1)
}

// toMesh fan-triangulates the polygons and repairs the result into an
// indexed mesh.
func toMesh(polys []polygon, tol float64) *kernel.MeshGL {
	var pts []v3.Vec
	var tris [][3]uint32
	var ids []uint32
	for _, p := range polys {
		base := uint32(len(pts))
		pts = append(pts, p.verts...)
		for k := 1; k+1 < len(p.verts); k++ {
			tris = append(tris, [3]uint32{base, base + uint32(k), base + uint32(k) + 1})
			ids = append(ids, p.id)
		}
	}
	verts, remap := weld(pts, tol)
	for i := range tris {
		tris[i] = [3]uint32{remap[tris[i][0]], remap[tris[i][1]], remap[tris[i][2]]}
	}
	tris, ids = dropDegenerate(verts, tris, ids, tol)
	verts, tris, ids = splitTJunctions(verts, tris, ids, tol)
	verts, tris = compact(verts, tris)
	return kernel.NewMeshGL(verts, tris, ids)
}
