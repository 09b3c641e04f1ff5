package solid

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCollapsed checks that every triangle's face ID resolves to a name
// whose canonical ID is that same ID.
func assertCollapsed(t *testing.T, s *Solid) {
	t.Helper()
	for tri, id := range s.faceIDs {
		name, ok := s.idToFace[id]
		require.True(t, ok, "triangle %d has unnamed ID %d", tri, id)
		assert.Equal(t, id, s.faceToID[name], "triangle %d of %q", tri, name)
	}
	assert.Len(t, s.idToFace, len(s.faceToID))
	for _, name := range s.FaceNames() {
		assert.NotEmpty(t, s.Face(name), "face %q has no triangles", name)
	}
}

func TestBooleanVolumes(t *testing.T) {
	tests := []struct {
		op     Op
		volume float64
	}{
		{OpUnion, 1875},
		{OpSubtract, 875},
		{OpDifference, 875},
		{OpIntersect, 125},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			eng := newEngine()
			a := mustBox(t, eng, "A", 10)
			b := mustBox(t, eng, "B", 10).Translate(v3.Vec{X: 5, Y: 5, Z: 5})

			r, err := Boolean(tt.op, a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.volume, r.Volume(), 1e-6)
			assert.False(t, r.Dirty())
			assertCollapsed(t, r)
		})
	}
}

func TestBooleanKeepsFaceNames(t *testing.T) {
	eng := newEngine()
	a := mustBox(t, eng, "A", 10)
	b := mustBox(t, eng, "B", 10).Translate(v3.Vec{X: 5, Y: 5, Z: 5})

	r, err := a.Subtract(b)
	require.NoError(t, err)

	want := []string{"A_NX", "A_NY", "A_NZ", "A_PX", "A_PY", "A_PZ", "B_NX", "B_NY", "B_NZ"}
	assert.Equal(t, want, r.FaceNames())
	for _, name := range r.FaceNames() {
		assert.False(t, strings.HasPrefix(name, "FACE_"), name)
	}
}

func TestBooleanCollapsesSharedNames(t *testing.T) {
	for _, op := range []Op{OpUnion, OpSubtract, OpIntersect} {
		t.Run(op.String(), func(t *testing.T) {
			eng := newEngine()
			a := mustBox(t, eng, "S", 10)
			b := mustBox(t, eng, "S", 10).Translate(v3.Vec{X: 5, Y: 5, Z: 5})
			idA, _ := a.FaceID("S_PX")

			r, err := Boolean(op, a, b)
			require.NoError(t, err)
			assertCollapsed(t, r)

			if r.HasFace("S_PX") {
				id, _ := r.FaceID("S_PX")
				assert.Equal(t, idA, id, "first operand's ID is canonical")
			}
			for _, name := range r.FaceNames() {
				assert.True(t, strings.HasPrefix(name, "S_"), name)
			}
		})
	}
}

func TestBooleanResultReusedAsOperand(t *testing.T) {
	eng := newEngine()
	a := mustBox(t, eng, "S", 10)
	b := mustBox(t, eng, "S", 10).Translate(v3.Vec{X: 5, Y: 5, Z: 5})
	c := mustBox(t, eng, "C", 2).Translate(v3.Vec{X: -1, Y: -1, Z: -1})

	u, err := a.Union(b)
	require.NoError(t, err)
	// u's engine handle still carries b's IDs for the shared names.
	r, err := u.Subtract(c)
	require.NoError(t, err)

	assertCollapsed(t, r)
	for _, name := range r.FaceNames() {
		assert.False(t, strings.HasPrefix(name, "FACE_"), name)
	}
	assert.InDelta(t, 1875-1, r.Volume(), 1e-6)
}

func TestBooleanMetadataFirstOperandWins(t *testing.T) {
	eng := newEngine()
	a := mustBox(t, eng, "S", 10)
	b := mustBox(t, eng, "S", 10).Translate(v3.Vec{X: 5, Y: 5, Z: 5})
	a.SetFaceMetadata("S_PZ", &Metadata{Source: "first"})
	b.SetFaceMetadata("S_PZ", &Metadata{Source: "second"})
	b.SetEdgeMetadata("only-b", &Metadata{Role: "b"})
	require.NoError(t, a.AddCenterline("axis", []v3.Vec{{}, {Z: 1}}, false))

	r, err := a.Union(b)
	require.NoError(t, err)
	m, ok := r.FaceMetadata("S_PZ")
	require.True(t, ok)
	assert.Equal(t, "first", m.Source)
	_, ok = r.EdgeMetadata("only-b")
	assert.True(t, ok)
	assert.Len(t, r.AuxEdges(), 1)
}

func TestBooleanEngineMismatch(t *testing.T) {
	a := mustBox(t, newEngine(), "A", 1)
	b := mustBox(t, newEngine(), "B", 1)

	_, err := a.Union(b)
	assert.ErrorIs(t, err, ErrEngineMismatch)
}

func TestBooleanPropagatesBuildErrors(t *testing.T) {
	eng := newEngine()
	a := mustBox(t, eng, "A", 1)
	open := New(WithEngine(eng))
	require.NoError(t, open.AddTriangle("F", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1}))

	_, err := a.Union(open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second operand")
}

func TestBooleanReleasesNothingOwnedByOperands(t *testing.T) {
	eng := newEngine()
	a := mustBox(t, eng, "A", 10)
	b := mustBox(t, eng, "B", 10).Translate(v3.Vec{X: 5})

	r, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, 3, eng.Live())

	_, err = a.Intersect(b)
	require.NoError(t, err, "operand handles stay valid")

	r.Release()
	a.Release()
	b.Release()
	assert.Equal(t, 1, eng.Live())
}
