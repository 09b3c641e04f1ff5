//go:build manifold

// Package manifold binds the Manifold C library
// (https://github.com/elalish/manifold) as a kernel.Engine.
//
// Face IDs travel through Manifold as a fourth vertex property. Authored
// vertices are split per face so the property is constant over each face,
// and manifold_meshgl_merge recovers the topology from positions. The
// property is stored as float32, so IDs above 1<<24 are not representable.
//
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"unsafe"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Engine = (*Engine)(nil)
var _ kernel.Manifold = (*handle)(nil)

const numProp = 4

// handle wraps a C ManifoldManifold pointer.
type handle struct {
	eng *Engine
	ptr *C.ManifoldManifold
}

// NumTri returns the triangle count reported by Manifold.
func (h *handle) NumTri() int {
	if h.ptr == nil {
		return 0
	}
	return int(C.manifold_num_tri(h.ptr))
}

// Engine implements kernel.Engine on top of manifoldc.
type Engine struct {
	ids kernel.IDAllocator
}

// New creates a Manifold-backed engine. A nil allocator selects the
// process-wide default.
func New(ids kernel.IDAllocator) (kernel.Engine, error) {
	if ids == nil {
		ids = kernel.DefaultAllocator()
	}
	return &Engine{ids: ids}, nil
}

func (e *Engine) unwrap(m kernel.Manifold) (*handle, error) {
	h, ok := m.(*handle)
	if !ok || h == nil || h.eng != e {
		return nil, kernel.ErrForeignHandle
	}
	if h.ptr == nil {
		return nil, kernel.ErrReleased
	}
	return h, nil
}

func (e *Engine) wrap(ptr *C.ManifoldManifold) (*handle, error) {
	if status := C.manifold_status(ptr); status != C.MANIFOLD_NO_ERROR {
		C.manifold_delete_manifold(ptr)
		return nil, fmt.Errorf("manifold: status %d: %w", int(status), kernel.ErrNotManifold)
	}
	return &handle{eng: e, ptr: ptr}, nil
}

// Build implements kernel.Engine.
func (e *Engine) Build(m *kernel.MeshGL) (kernel.Manifold, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifold: build: %w", err)
	}
	if m.IsEmpty() {
		return e.wrap(C.manifold_empty(unsafe.Pointer(C.manifold_alloc_manifold())))
	}

	// Split vertices per face so the ID property is constant per face.
	type key struct {
		v  uint32
		id uint32
	}
	index := make(map[key]uint32)
	var props []float32
	tris := make([]uint32, 0, len(m.TriVerts))
	for t := 0; t < m.TriangleCount(); t++ {
		var id uint32
		if len(m.FaceID) > 0 {
			id = m.FaceID[t]
		}
		for _, v := range m.Triangle(t) {
			k := key{v, id}
			i, ok := index[k]
			if !ok {
				i = uint32(len(props) / numProp)
				index[k] = i
				p := m.Position(int(v))
				props = append(props, float32(p.X), float32(p.Y), float32(p.Z), float32(id))
			}
			tris = append(tris, i)
		}
	}

	mesh := C.manifold_meshgl(unsafe.Pointer(C.manifold_alloc_meshgl()),
		(*C.float)(unsafe.Pointer(&props[0])), C.size_t(len(props)/numProp), C.size_t(numProp),
		(*C.uint32_t)(unsafe.Pointer(&tris[0])), C.size_t(len(tris)/3))
	defer C.manifold_delete_meshgl(mesh)
	merged := C.manifold_meshgl_merge(unsafe.Pointer(C.manifold_alloc_meshgl()), mesh)
	defer C.manifold_delete_meshgl(merged)

	return e.wrap(C.manifold_of_meshgl(unsafe.Pointer(C.manifold_alloc_manifold()), merged))
}

type binop func(mem unsafe.Pointer, a, b *C.ManifoldManifold) *C.ManifoldManifold

func (e *Engine) boolean(name string, op binop, a, b kernel.Manifold) (kernel.Manifold, error) {
	ha, err := e.unwrap(a)
	if err != nil {
		return nil, fmt.Errorf("manifold: %s: %w", name, err)
	}
	hb, err := e.unwrap(b)
	if err != nil {
		return nil, fmt.Errorf("manifold: %s: %w", name, err)
	}
	return e.wrap(op(unsafe.Pointer(C.manifold_alloc_manifold()), ha.ptr, hb.ptr))
}

// Union implements kernel.Engine.
func (e *Engine) Union(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("union", func(mem unsafe.Pointer, a, b *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_union(mem, a, b)
	}, a, b)
}

// Subtract implements kernel.Engine.
func (e *Engine) Subtract(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("subtract", func(mem unsafe.Pointer, a, b *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_difference(mem, a, b)
	}, a, b)
}

// Intersect implements kernel.Engine.
func (e *Engine) Intersect(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.boolean("intersect", func(mem unsafe.Pointer, a, b *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_intersection(mem, a, b)
	}, a, b)
}

// Difference is an alias of Subtract.
func (e *Engine) Difference(a, b kernel.Manifold) (kernel.Manifold, error) {
	return e.Subtract(a, b)
}

// Hull implements kernel.Engine. Manifold's hull carries no properties, so
// the result is read back and rebuilt with a freshly reserved face ID.
func (e *Engine) Hull(points []v3.Vec) (kernel.Manifold, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("manifold: hull of %d points: %w", len(points), kernel.ErrDegenerateHull)
	}
	pts := make([]C.ManifoldVec3, len(points))
	for i, p := range points {
		pts[i] = C.ManifoldVec3{x: C.double(p.X), y: C.double(p.Y), z: C.double(p.Z)}
	}
	raw, err := e.wrap(C.manifold_hull_pts(unsafe.Pointer(C.manifold_alloc_manifold()), &pts[0], C.size_t(len(pts))))
	if err != nil {
		return nil, fmt.Errorf("manifold: hull: %w", err)
	}
	defer e.Delete(raw)
	if raw.NumTri() == 0 {
		return nil, fmt.Errorf("manifold: hull: %w", kernel.ErrDegenerateHull)
	}

	mesh, err := e.GetMesh(raw)
	if err != nil {
		return nil, err
	}
	id := e.ids.Reserve(1)
	for i := range mesh.FaceID {
		mesh.FaceID[i] = id
	}
	return e.Build(mesh)
}

// ReserveIDs implements kernel.Engine.
func (e *Engine) ReserveIDs(n int) uint32 {
	return e.ids.Reserve(n)
}

// SetTolerance implements kernel.Engine.
func (e *Engine) SetTolerance(m kernel.Manifold, tolerance float64) (kernel.Manifold, error) {
	h, err := e.unwrap(m)
	if err != nil {
		return nil, fmt.Errorf("manifold: set tolerance: %w", err)
	}
	return e.wrap(C.manifold_set_tolerance(unsafe.Pointer(C.manifold_alloc_manifold()), h.ptr, C.double(tolerance)))
}

// Simplify implements kernel.Engine.
func (e *Engine) Simplify(m kernel.Manifold, tolerance float64) (kernel.Manifold, error) {
	h, err := e.unwrap(m)
	if err != nil {
		return nil, fmt.Errorf("manifold: simplify: %w", err)
	}
	return e.wrap(C.manifold_simplify(unsafe.Pointer(C.manifold_alloc_manifold()), h.ptr, C.double(tolerance)))
}

// GetMesh implements kernel.Engine. Vertices are re-merged by position so
// the returned mesh is indexed like an authored one.
func (e *Engine) GetMesh(m kernel.Manifold) (*kernel.MeshGL, error) {
	h, err := e.unwrap(m)
	if err != nil {
		return nil, fmt.Errorf("manifold: get mesh: %w", err)
	}
	gl := C.manifold_get_meshgl(unsafe.Pointer(C.manifold_alloc_meshgl()), h.ptr)
	defer C.manifold_delete_meshgl(gl)

	numVert := int(C.manifold_meshgl_num_vert(gl))
	numTri := int(C.manifold_meshgl_num_tri(gl))
	np := int(C.manifold_meshgl_num_prop(gl))
	if numVert == 0 || numTri == 0 {
		return kernel.NewMeshGL(nil, nil, nil), nil
	}

	props := make([]float32, numVert*np)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), gl)
	idx := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&idx[0])), gl)

	index := make(map[v3.Vec]uint32, numVert)
	remap := make([]uint32, numVert)
	var verts []v3.Vec
	for i := 0; i < numVert; i++ {
		b := i * np
		p := v3.Vec{X: float64(props[b]), Y: float64(props[b+1]), Z: float64(props[b+2])}
		j, ok := index[p]
		if !ok {
			j = uint32(len(verts))
			index[p] = j
			verts = append(verts, p)
		}
		remap[i] = j
	}

	tris := make([][3]uint32, numTri)
	ids := make([]uint32, numTri)
	for t := range tris {
		a := idx[t*3]
		tris[t] = [3]uint32{remap[a], remap[idx[t*3+1]], remap[idx[t*3+2]]}
		if np >= numProp {
			ids[t] = uint32(math.Round(float64(props[int(a)*np+3])))
		}
	}
	return kernel.NewMeshGL(verts, tris, ids), nil
}

// Delete implements kernel.Engine.
func (e *Engine) Delete(m kernel.Manifold) {
	h, ok := m.(*handle)
	if !ok || h == nil || h.ptr == nil || h.eng != e {
		return
	}
	C.manifold_delete_manifold(h.ptr)
	h.ptr = nil
}
