package solid

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeBoundaryPolylines(t *testing.T) {
	s := mustBox(t, newEngine(), "C", 1)
	lines := s.BoundaryPolylines()
	require.Len(t, lines, 12)

	seen := map[EdgeKey]int{}
	for _, pl := range lines {
		assert.NotEqual(t, pl.FaceA, pl.FaceB)
		assert.Less(t, pl.FaceA, pl.FaceB)
		assert.False(t, pl.Closed)
		require.Len(t, pl.Indices, 2)
		assert.Len(t, pl.Positions, 2)
		for i := 0; i+1 < len(pl.Indices); i++ {
			seen[MakeEdgeKey(pl.Indices[i], pl.Indices[i+1])]++
		}
	}
	assert.Len(t, seen, 12)
	for k, n := range seen {
		assert.Equal(t, 1, n, "edge %v", k)
	}
}

func TestBoundaryPolylineChainsAndLoops(t *testing.T) {
	eng := newEngine()
	base := mustBox(t, eng, "B", 10)
	post, err := Cylinder("P", 2, 4, 16, WithEngine(eng))
	require.NoError(t, err)
	post = post.Translate(v3.Vec{X: 5, Y: 5, Z: 8})

	s, err := base.Union(post)
	require.NoError(t, err)

	loops := s.BoundaryBetween("B_PZ", "P_SIDE")
	require.Len(t, loops, 1)
	assert.True(t, loops[0].Closed)
	assert.GreaterOrEqual(t, len(loops[0].Indices), 16)
	for _, p := range loops[0].Positions {
		assert.InDelta(t, 10, p.Z, 1e-9)
	}
	assert.Equal(t, "B_PZ|P_SIDE", loops[0].Faces())
	assert.Equal(t, "P_SIDE", loops[0].Other("B_PZ"))
}
