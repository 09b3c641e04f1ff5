package solid

import (
	"errors"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/kernel/csg"
)

// newEngine returns an engine with its own ID allocator so tests never
// share face IDs.
func newEngine() *csg.Engine {
	return csg.New(csg.WithAllocator(kernel.NewCounter(1)))
}

func mustBox(t *testing.T, eng kernel.Engine, name string, size float64) *Solid {
	t.Helper()
	s, err := Box(name, v3.Vec{X: size, Y: size, Z: size}, WithEngine(eng))
	require.NoError(t, err)
	return s
}

var boxSuffixes = []string{FaceNX, FacePX, FaceNY, FacePY, FaceNZ, FacePZ}

func TestCubeRoundTrip(t *testing.T) {
	s := mustBox(t, newEngine(), "C", 1)

	assert.Equal(t, 12, s.TriangleCount())
	assert.Equal(t, 8, s.VertexCount())
	assert.Len(t, s.FaceNames(), 6)
	for _, suffix := range boxSuffixes {
		tris := s.Face("C" + suffix)
		require.Len(t, tris, 2, suffix)
		for _, tri := range tris {
			assert.Equal(t, "C"+suffix, s.TriangleFace(tri.Index))
		}
	}
	assert.InDelta(t, 1.0, s.Volume(), 1e-12)
	assert.InDelta(t, 6.0, s.SurfaceArea(), 1e-12)
}

func TestFaceIDsAreUniqueAcrossSolids(t *testing.T) {
	eng := newEngine()
	a := mustBox(t, eng, "A", 1)
	b := mustBox(t, eng, "A", 1)

	ids := map[uint32]bool{}
	for _, id := range a.FaceIDs() {
		ids[id] = true
	}
	for _, id := range b.FaceIDs() {
		assert.False(t, ids[id], "face ID %d reused", id)
	}
}

func TestFaceIDsAreUniqueWithDefaultEngine(t *testing.T) {
	a, err := Box("A", v3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	b, err := Cylinder("B", 1, 1, 8)
	require.NoError(t, err)

	for _, ida := range a.FaceIDs() {
		for _, idb := range b.FaceIDs() {
			assert.NotEqual(t, ida, idb)
		}
	}
}

func TestAddTriangleRejectsBadInput(t *testing.T) {
	s := New(WithEngine(newEngine()))

	err := s.AddTriangle("F", v3.Vec{X: math.NaN()}, v3.Vec{X: 1}, v3.Vec{Y: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.ErrorIs(t, err, kernel.ErrNonFinite, "solid and kernel share the sentinel")
	var ae *AuthoringError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "F", ae.Name)

	err = s.AddTriangle("F", v3.Vec{X: 1}, v3.Vec{X: 1}, v3.Vec{Y: 1})
	assert.ErrorIs(t, err, ErrDegenerate)

	assert.Equal(t, 0, s.TriangleCount())
	assert.False(t, s.HasFace("F"))
}

func TestAddTriangleSharesVertices(t *testing.T) {
	s := New(WithEngine(newEngine()))
	require.NoError(t, s.AddTriangle("F", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1}))
	require.NoError(t, s.AddTriangle("G", v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}))

	assert.Equal(t, 4, s.VertexCount())
	assert.True(t, s.Dirty())
	idF, _ := s.FaceID("F")
	idG, _ := s.FaceID("G")
	assert.NotEqual(t, idF, idG)
}

func TestAuxEdges(t *testing.T) {
	s := New(WithEngine(newEngine()))
	pts := []v3.Vec{{}, {Z: 1}}

	require.NoError(t, s.AddAuxEdge("shaft_Centerline", pts, AuxEdgeOptions{}))
	require.NoError(t, s.AddAuxEdge("guide", pts, AuxEdgeOptions{Closed: true}))
	no := false
	require.NoError(t, s.AddAuxEdge("centerline_hint", pts, AuxEdgeOptions{Centerline: &no}))
	require.NoError(t, s.AddCenterline("axis", pts, false))

	edges := s.AuxEdges()
	require.Len(t, edges, 4)
	assert.True(t, edges[0].Centerline)
	assert.False(t, edges[1].Centerline)
	assert.True(t, edges[1].Closed)
	assert.False(t, edges[2].Centerline)
	assert.True(t, edges[3].Centerline)

	edges[0].Points[0] = v3.Vec{X: 9}
	assert.Equal(t, v3.Vec{}, s.AuxEdges()[0].Points[0])

	err := s.AddAuxEdge("bad", []v3.Vec{{X: math.Inf(1)}}, AuxEdgeOptions{})
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestMetadata(t *testing.T) {
	s := mustBox(t, newEngine(), "B", 1)
	m := &Metadata{Source: "fillet", Radius: 2, TangentFaces: []string{"B_NX"}}
	m.Set("weight", Float(1.5))
	s.SetFaceMetadata("B_PZ", m)

	m.TangentFaces[0] = "changed"
	got, ok := s.FaceMetadata("B_PZ")
	require.True(t, ok)
	assert.Equal(t, "fillet", got.Source)
	assert.Equal(t, []string{"B_NX"}, got.TangentFaces)
	v, ok := got.Get("weight")
	require.True(t, ok)
	f, ok := v.AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	s.SetEdgeMetadata("E1", &Metadata{SheetMetal: "bend"})
	e, ok := s.EdgeMetadata("E1")
	require.True(t, ok)
	assert.Equal(t, "bend", e.SheetMetal)
}

func TestManifoldLifecycle(t *testing.T) {
	eng := newEngine()
	s := mustBox(t, eng, "B", 1)

	h1, err := s.Manifold()
	require.NoError(t, err)
	assert.False(t, s.Dirty())
	h2, err := s.Manifold()
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 1, eng.Live())

	require.NoError(t, s.SetVertex(0, v3.Vec{X: -0.5}))
	assert.True(t, s.Dirty())
	_, err = s.Manifold()
	require.NoError(t, err)
	assert.Equal(t, 1, eng.Live(), "rebuild must release the old handle")

	s.Release()
	assert.Equal(t, 0, eng.Live())
}

func TestManifoldRejectsOpenSurface(t *testing.T) {
	s := New(WithEngine(newEngine()))
	require.NoError(t, s.AddTriangle("F", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1}))

	_, err := s.Manifold()
	assert.ErrorIs(t, err, kernel.ErrNotManifold)
}

func TestTransform(t *testing.T) {
	s := mustBox(t, newEngine(), "B", 2)
	require.NoError(t, s.AddAuxEdge("axis", []v3.Vec{{}, {Z: 1}}, AuxEdgeOptions{}))
	require.NoError(t, s.AddAuxEdge("world", []v3.Vec{{}, {Z: 1}}, AuxEdgeOptions{WorldSpace: true}))

	moved := s.Translate(v3.Vec{X: 10})
	bb := moved.BoundingBox()
	assert.InDelta(t, 10, bb.Min.X, 1e-12)
	assert.InDelta(t, 12, bb.Max.X, 1e-12)
	assert.InDelta(t, 0, s.BoundingBox().Min.X, 1e-12, "original untouched")
	assert.InDelta(t, 10, moved.AuxEdges()[0].Points[0].X, 1e-12)
	assert.InDelta(t, 0, moved.AuxEdges()[1].Points[0].X, 1e-12)

	mirrored := s.Transform(sdf.Scale3d(v3.Vec{X: -1, Y: 1, Z: 1}))
	assert.InDelta(t, 8, mirrored.Volume(), 1e-9, "mirror keeps outward winding")
	assert.Equal(t, s.FaceNames(), mirrored.FaceNames())
}

func TestFaceNormalAndArea(t *testing.T) {
	s := mustBox(t, newEngine(), "B", 3)
	assert.InDelta(t, 9, s.FaceArea("B_PZ"), 1e-12)
	n := s.FaceNormal("B_NY")
	assert.InDelta(t, -1, n.Y, 1e-12)
	assert.Equal(t, v3.Vec{}, s.FaceNormal("missing"))
	assert.Len(t, s.Triangles(), 12)
}

func TestRenameFace(t *testing.T) {
	s := mustBox(t, newEngine(), "B", 1)
	id, _ := s.FaceID("B_PZ")

	require.NoError(t, s.RenameFace("B_PZ", "TOP"))
	assert.False(t, s.HasFace("B_PZ"))
	got, ok := s.FaceID("TOP")
	require.True(t, ok)
	assert.Equal(t, id, got)
	name, _ := s.FaceName(id)
	assert.Equal(t, "TOP", name)

	require.NoError(t, s.RenameFace("TOP", "B_NZ"))
	assert.Len(t, s.Face("B_NZ"), 4)
	assert.Len(t, s.FaceNames(), 5)

	assert.ErrorIs(t, s.RenameFace("nope", "x"), ErrUnknownFace)
}

func TestPrimitives(t *testing.T) {
	eng := newEngine()

	c, err := Cylinder("CYL", 1, 2, 64, WithEngine(eng))
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi, c.Volume(), 0.02)
	assert.ElementsMatch(t, []string{"CYL_BOTTOM", "CYL_SIDE", "CYL_TOP"}, c.FaceNames())
	_, err = c.Manifold()
	require.NoError(t, err, "cylinder must be closed")

	h, err := Hull("H", []v3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 0.1, Y: 0.1, Z: 0.1}}, WithEngine(eng))
	require.NoError(t, err)
	assert.Equal(t, []string{"H"}, h.FaceNames())
	assert.InDelta(t, 1.0/6.0, h.Volume(), 1e-9)

	_, err = Box("bad", v3.Vec{X: 1, Y: 0, Z: 1})
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestFromMesh(t *testing.T) {
	eng := newEngine()
	src := mustBox(t, eng, "B", 1)

	s, err := FromMesh("IMPORTED", src.Mesh(), WithEngine(eng))
	require.NoError(t, err)
	assert.Equal(t, []string{"IMPORTED"}, s.FaceNames())
	assert.Equal(t, 12, s.TriangleCount())
	assert.InDelta(t, 1.0, s.Volume(), 1e-12)

	bad := src.Mesh()
	bad.VertProperties[0] = math.Inf(1)
	_, err = FromMesh("IMPORTED", bad, WithEngine(eng))
	assert.ErrorIs(t, err, ErrNonFinite, "kernel validation matches the solid sentinel")
}

func TestSimplify(t *testing.T) {
	eng := newEngine()
	s := mustBox(t, eng, "B", 2)

	out, err := s.Simplify(1e-4)
	require.NoError(t, err)
	assert.InDelta(t, 8, out.Volume(), 1e-9)
	assert.Equal(t, s.FaceNames(), out.FaceNames())
}
