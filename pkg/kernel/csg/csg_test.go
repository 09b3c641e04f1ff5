package csg

import (
	"errors"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/brep/pkg/kernel"
)

// boxMesh returns an outward-wound box with one face ID per side.
func boxMesh(min, max v3.Vec, firstID uint32) *kernel.MeshGL {
	verts := []v3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z}, {X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z}, {X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z}, {X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z}, {X: min.X, Y: max.Y, Z: max.Z},
	}
	tris := [][3]uint32{
		{0, 4, 7}, {0, 7, 3}, // -X
		{1, 2, 6}, {1, 6, 5}, // +X
		{0, 1, 5}, {0, 5, 4}, // -Y
		{3, 7, 6}, {3, 6, 2}, // +Y
		{0, 2, 1}, {0, 3, 2}, // -Z
		{4, 5, 6}, {4, 6, 7}, // +Z
	}
	ids := make([]uint32, len(tris))
	for i := range ids {
		ids[i] = firstID + uint32(i/2)
	}
	return kernel.NewMeshGL(verts, tris, ids)
}

func signedVolume(m *kernel.MeshGL) float64 {
	vol := 0.0
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := m.Position(int(tri[0])), m.Position(int(tri[1])), m.Position(int(tri[2]))
		vol += a.Dot(b.Cross(c)) / 6
	}
	return vol
}

func meshTris(m *kernel.MeshGL) [][3]uint32 {
	out := make([][3]uint32, m.TriangleCount())
	for i := range out {
		out[i] = m.Triangle(i)
	}
	return out
}

func idSet(m *kernel.MeshGL) map[uint32]bool {
	out := map[uint32]bool{}
	for _, id := range m.FaceID {
		out[id] = true
	}
	return out
}

func buildBoxes(t *testing.T, e *Engine) (kernel.Manifold, kernel.Manifold) {
	t.Helper()
	a, err := e.Build(boxMesh(v3.Vec{}, v3.Vec{X: 2, Y: 2, Z: 2}, 100))
	require.NoError(t, err)
	b, err := e.Build(boxMesh(v3.Vec{X: 1, Y: 1, Z: 1}, v3.Vec{X: 3, Y: 3, Z: 3}, 200))
	require.NoError(t, err)
	return a, b
}

func TestBuildRoundTrip(t *testing.T) {
	e := New()
	h, err := e.Build(boxMesh(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1))
	require.NoError(t, err)
	defer e.Delete(h)

	assert.Equal(t, 12, h.NumTri())
	m, err := e.GetMesh(h)
	require.NoError(t, err)
	assert.Equal(t, 8, m.VertexCount())
	assert.InDelta(t, 1.0, signedVolume(m), 1e-9)
	assert.Len(t, idSet(m), 6)
	assert.True(t, closed(meshTris(m)))
}

func TestBuildRejectsOpenMesh(t *testing.T) {
	m := boxMesh(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1)
	m.TriVerts = m.TriVerts[:len(m.TriVerts)-3]
	m.FaceID = m.FaceID[:len(m.FaceID)-1]

	_, err := New().Build(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kernel.ErrNotManifold))
}

func TestGetMeshRejectsOpenReadback(t *testing.T) {
	e := New()
	a, b, c := v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1}
	pl, ok := planeFromPoints(a, b, c)
	require.True(t, ok)
	h := e.newHandle([]polygon{{verts: []v3.Vec{a, b, c}, plane: pl, id: 1}}, e.eps)
	defer e.Delete(h)

	_, err := e.GetMesh(h)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kernel.ErrNotManifold))
}

func TestBuildRejectsNonFinite(t *testing.T) {
	m := boxMesh(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1)
	m.VertProperties[0] = math.NaN()

	_, err := New().Build(m)
	assert.ErrorIs(t, err, kernel.ErrNonFinite)
}

func TestBooleans(t *testing.T) {
	tests := []struct {
		name   string
		op     func(e *Engine, a, b kernel.Manifold) (kernel.Manifold, error)
		volume float64
		ids    int
	}{
		{"union", (*Engine).Union, 15, 12},
		{"subtract", (*Engine).Subtract, 7, 9},
		{"difference", (*Engine).Difference, 7, 9},
		{"intersect", (*Engine).Intersect, 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			a, b := buildBoxes(t, e)
			r, err := tt.op(e, a, b)
			require.NoError(t, err)

			m, err := e.GetMesh(r)
			require.NoError(t, err)
			assert.InDelta(t, tt.volume, signedVolume(m), 1e-6)
			assert.Len(t, idSet(m), tt.ids)
			assert.True(t, closed(meshTris(m)), "readback must be closed")
		})
	}
}

func TestSubtractKeepsOperandIDs(t *testing.T) {
	e := New()
	a, b := buildBoxes(t, e)
	r, err := e.Subtract(a, b)
	require.NoError(t, err)
	m, err := e.GetMesh(r)
	require.NoError(t, err)

	ids := idSet(m)
	// The three faces of A touching the origin survive whole, and the three
	// faces of B facing the origin line the notch.
	for _, id := range []uint32{100, 102, 104, 200, 202, 204} {
		assert.True(t, ids[id], "missing face %d", id)
	}
}

func TestHull(t *testing.T) {
	e := New(WithAllocator(kernel.NewCounter(50)))
	pts := []v3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		{X: 0.5, Y: 0.5, Z: 0.5},
	}
	h, err := e.Hull(pts)
	require.NoError(t, err)
	m, err := e.GetMesh(h)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, signedVolume(m), 1e-9)
	assert.Equal(t, map[uint32]bool{50: true}, idSet(m))
	assert.True(t, closed(meshTris(m)))
}

func TestHullDegenerate(t *testing.T) {
	_, err := New().Hull([]v3.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}})
	assert.ErrorIs(t, err, kernel.ErrDegenerateHull)
}

func TestHandleLifecycle(t *testing.T) {
	e := New()
	h, err := e.Build(boxMesh(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Live())

	e.Delete(h)
	e.Delete(h)
	e.Delete(nil)
	assert.Equal(t, 0, e.Live())
	assert.Equal(t, 0, h.NumTri())

	_, err = e.GetMesh(h)
	assert.ErrorIs(t, err, kernel.ErrReleased)
	_, err = e.Union(h, h)
	assert.ErrorIs(t, err, kernel.ErrReleased)
}

func TestForeignHandle(t *testing.T) {
	e1, e2 := New(), New()
	h, err := e1.Build(boxMesh(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1))
	require.NoError(t, err)

	_, err = e2.GetMesh(h)
	assert.ErrorIs(t, err, kernel.ErrForeignHandle)
}

func TestGetMeshReturnsCopy(t *testing.T) {
	e := New()
	h, err := e.Build(boxMesh(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1))
	require.NoError(t, err)

	m1, err := e.GetMesh(h)
	require.NoError(t, err)
	m1.VertProperties[0] = 99
	m1.FaceID[0] = 99

	m2, err := e.GetMesh(h)
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, m2.VertProperties[0])
	assert.NotEqual(t, uint32(99), m2.FaceID[0])
}

func TestSimplifyKeepsVolume(t *testing.T) {
	e := New()
	a, b := buildBoxes(t, e)
	u, err := e.Union(a, b)
	require.NoError(t, err)
	s, err := e.Simplify(u, 1e-4)
	require.NoError(t, err)

	m, err := e.GetMesh(s)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, signedVolume(m), 1e-6)
}

func TestWeld(t *testing.T) {
	pts := []v3.Vec{{X: 0}, {X: 1e-7}, {X: 1}, {X: 1 + 1e-7}, {X: 2}}
	out, remap := weld(pts, 1e-5)
	assert.Len(t, out, 3)
	assert.Equal(t, []uint32{0, 0, 1, 1, 2}, remap)
}

func TestSplitTJunctions(t *testing.T) {
	// Two triangles sharing the edge 0-1 from one side and split at 3 on
	// the other.
	verts := []v3.Vec{{X: 0}, {X: 2}, {X: 1, Y: 1}, {X: 1}, {X: 1, Y: -1}}
	tris := [][3]uint32{{0, 1, 2}, {0, 4, 3}, {3, 4, 1}}
	ids := []uint32{1, 2, 2}

	_, out, outIDs := splitTJunctions(verts, tris, ids, 1e-6)
	assert.Len(t, out, 4)
	assert.Equal(t, []uint32{1, 1, 2, 2}, outIDs)
}
