package solid

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// LoftSpec describes a solid swept through a sequence of cross-sections.
// Every section has the same number of points. SideNames names the strip
// swept by each section edge, edge k running from point k to point k+1
// (wrapping). The start and end sections are closed with fans from their
// first point, named CapNames[0] and CapNames[1], unless Closed is set, in
// which case the last section connects back to the first.
type LoftSpec struct {
	Sections  [][]v3.Vec
	SideNames []string
	CapNames  [2]string
	Closed    bool
}

type loftTri struct {
	face    string
	a, b, c v3.Vec
}

// Loft builds the solid described by spec. The winding is chosen so the
// result has positive volume.
func Loft(spec LoftSpec, opts ...Option) (*Solid, error) {
	if len(spec.Sections) < 2 {
		return nil, fmt.Errorf("solid: loft: %d sections, need at least 2", len(spec.Sections))
	}
	n := len(spec.Sections[0])
	if n < 3 {
		return nil, fmt.Errorf("solid: loft: section has %d points, need at least 3", n)
	}
	if len(spec.SideNames) != n {
		return nil, fmt.Errorf("solid: loft: %d side names for %d section edges", len(spec.SideNames), n)
	}
	for i, sec := range spec.Sections {
		if len(sec) != n {
			return nil, fmt.Errorf("solid: loft: section %d has %d points, want %d", i, len(sec), n)
		}
	}

	var tris []loftTri
	quad := func(face string, a, b, c, d v3.Vec) {
		tris = append(tris, loftTri{face, a, b, c}, loftTri{face, a, c, d})
	}
	m := len(spec.Sections)
	spans := m - 1
	if spec.Closed {
		spans = m
	}
	for i := 0; i < spans; i++ {
		s0, s1 := spec.Sections[i], spec.Sections[(i+1)%m]
		for k := 0; k < n; k++ {
			k1 := (k + 1) % n
			quad(spec.SideNames[k], s0[k], s0[k1], s1[k1], s1[k])
		}
	}
	if !spec.Closed {
		first, last := spec.Sections[0], spec.Sections[m-1]
		for k := 1; k+1 < n; k++ {
			tris = append(tris,
				loftTri{spec.CapNames[0], first[0], first[k+1], first[k]},
				loftTri{spec.CapNames[1], last[0], last[k], last[k+1]})
		}
	}

	vol := 0.0
	for _, t := range tris {
		vol += t.a.Dot(t.b.Cross(t.c))
	}
	s := New(opts...)
	for _, t := range tris {
		b, c := t.b, t.c
		if vol < 0 {
			b, c = c, b
		}
		if err := s.AddTriangle(t.face, t.a, b, c); err != nil {
			if errors.Is(err, ErrDegenerate) {
				continue
			}
			return nil, err
		}
	}
	return s, nil
}
