package fillet

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/edge"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/solid"
)

// Face name suffixes, appended to the per-edge prefix.
const (
	SuffixRound       = "_TUBE_Outer"
	SuffixSideA       = "_SIDE_A"
	SuffixSideB       = "_SIDE_B"
	SuffixEndCap      = "_END_CAP_"
	SuffixTubeEndCap  = "_TUBE_END_CAP_"
	SuffixWedgeA      = "_WEDGE_A"
	SuffixWedgeB      = "_WEDGE_B"
	SuffixSurfaceCA   = "_SURFACE_CA"
	SuffixSurfaceCB   = "_SURFACE_CB"
	SuffixWedgeEndCap = "_WEDGE_END_CAP_"
)

const (
	overshootFloor   = 5e-4
	openEndExtension = 0.05 // times the radius
	tangentTolerance = 1e-6
	minArcSegments   = 2
)

// section is the fillet cross-section at one edge point.
type section struct {
	p       v3.Vec // edge point
	out     v3.Vec // p pushed off the base so the body overlaps cleanly
	center  v3.Vec
	tA, tB  v3.Vec // tangent points on faces A and B
	tangent v3.Vec
	arc     []v3.Vec // tA to tB around center
}

// ring is the closed outline of the carving body: out, then the arc.
func (s section) ring() []v3.Vec {
	return append([]v3.Vec{s.out}, s.arc...)
}

// piece is everything built for one resolved edge.
type piece struct {
	ref      string
	edge     *edge.Edge
	prefix   string
	dir      Direction
	sections []section

	body    *solid.Solid
	refArea map[string]float64
	applied bool
}

func (p *piece) round() string { return p.prefix + SuffixRound }

func (p *piece) caps() []string {
	if p.edge.Closed {
		return nil
	}
	return []string{p.prefix + SuffixEndCap + "0", p.prefix + SuffixEndCap + "1"}
}

func (p *piece) minorFaces() []string {
	return append(p.caps(), p.prefix+SuffixSideA, p.prefix+SuffixSideB)
}

func (p *piece) tangentCurve(b bool) []v3.Vec {
	out := make([]v3.Vec, len(p.sections))
	for i, s := range p.sections {
		out[i] = s.tA
		if b {
			out[i] = s.tB
		}
	}
	return out
}

// resolveDirection applies Auto.
func resolveDirection(d Direction, e *edge.Edge) Direction {
	if d != Auto {
		return d
	}
	if e.Convex {
		return Inset
	}
	return Outset
}

// sections computes the cross-sections of e. Inset arcs bulge towards the
// edge with their center inside the material, outset arcs have their
// center outside it.
func sections(e *edge.Edge, r float64, dir Direction, resolution int) ([]section, error) {
	s := 1.0
	if dir == Inset {
		s = -1
	}
	delta := math.Max(1e-3*r, overshootFloor)
	out := make([]section, len(e.Points))
	maxAngle := 0.0
	for i, p := range e.Points {
		nA, nB := e.NormalA[i], e.NormalB[i]
		d := nA.Dot(nB)
		switch {
		case d > 1-tangentTolerance:
			return nil, fmt.Errorf("%w (point %d)", ErrTangentFaces, i)
		case 1+d < tangentTolerance:
			return nil, fmt.Errorf("%w (point %d)", ErrFoldedFaces, i)
		}
		bis := nA.Add(nB)
		c := p.Add(bis.MulScalar(s * r / (1 + d)))
		sec := section{
			p:       p,
			out:     p.Sub(bis.MulScalar(s * delta)),
			center:  c,
			tA:      c.Sub(nA.MulScalar(s * r)),
			tB:      c.Sub(nB.MulScalar(s * r)),
			tangent: e.Tangent(i),
		}
		maxAngle = math.Max(maxAngle, geom.Angle(nA, nB))
		out[i] = sec
	}

	segs := max(minArcSegments, int(math.Ceil(float64(resolution)*maxAngle/(2*math.Pi)-1e-9)))
	for i := range out {
		a, b := out[i].tA.Sub(out[i].center), out[i].tB.Sub(out[i].center)
		arc := make([]v3.Vec, segs+1)
		for j := range arc {
			arc[j] = out[i].center.Add(geom.Slerp(a, b, float64(j)/float64(segs)))
		}
		arc[0], arc[segs] = out[i].tA, out[i].tB
		out[i].arc = arc
	}
	return out, nil
}

// loftRings returns one ring per section. Inset bodies on open edges are
// stretched past both ends so their caps do not lie on the base's end
// faces.
func loftRings(p *piece, r float64, ring func(section) []v3.Vec) [][]v3.Vec {
	rings := make([][]v3.Vec, len(p.sections))
	for i, s := range p.sections {
		rings[i] = ring(s)
	}
	if p.edge.Closed || p.dir != Inset {
		return rings
	}
	ext := openEndExtension * r
	shift := func(pts []v3.Vec, d v3.Vec) {
		for k := range pts {
			pts[k] = pts[k].Add(d)
		}
	}
	first, last := p.sections[0], p.sections[len(p.sections)-1]
	shift(rings[0], first.tangent.MulScalar(-ext))
	shift(rings[len(rings)-1], last.tangent.MulScalar(ext))
	return rings
}

func (b *builder) newPiece(ref string, e *edge.Edge, k int) (*piece, error) {
	p := &piece{
		ref:    ref,
		edge:   e,
		prefix: fmt.Sprintf("%s%d", b.opts.Name, k),
		dir:    resolveDirection(b.opts.Direction, e),
	}
	secs, err := sections(e, b.opts.Radius, p.dir, b.opts.Resolution)
	if err != nil {
		return nil, err
	}
	p.sections = secs

	segs := len(secs[0].arc) - 1
	names := make([]string, 0, segs+2)
	names = append(names, p.prefix+SuffixSideA)
	for range segs {
		names = append(names, p.round())
	}
	names = append(names, p.prefix+SuffixSideB)
	body, err := solid.Loft(solid.LoftSpec{
		Sections:  loftRings(p, b.opts.Radius, section.ring),
		SideNames: names,
		CapNames:  [2]string{p.prefix + SuffixEndCap + "0", p.prefix + SuffixEndCap + "1"},
		Closed:    e.Closed,
	}, solid.WithEngine(b.eng))
	if err != nil {
		return nil, err
	}
	b.annotate(body, p)
	p.body = body
	p.refArea = body.FaceAreas()
	return p, nil
}

func (b *builder) annotate(s *solid.Solid, p *piece) {
	for _, name := range s.FaceNames() {
		role := "side"
		switch name {
		case p.round():
			role = "round"
		case p.prefix + SuffixEndCap + "0", p.prefix + SuffixEndCap + "1":
			role = "cap"
		}
		s.SetFaceMetadata(name, &solid.Metadata{
			Source:       "fillet",
			FeatureID:    p.prefix,
			Role:         role,
			Radius:       b.opts.Radius,
			TangentFaces: []string{p.edge.FaceA, p.edge.FaceB},
		})
	}
}

// tube is the swept round surface of the fillet: a full circle around the
// arc center at every section.
func (b *builder) tube(p *piece) (*solid.Solid, error) {
	n := b.opts.Resolution
	ring := func(s section) []v3.Vec {
		e1 := geom.SafeNormalize(s.tA.Sub(s.center))
		e2 := s.tangent.Cross(e1)
		pts := make([]v3.Vec, n)
		for k := range pts {
			phi := 2 * math.Pi * float64(k) / float64(n)
			pts[k] = s.center.Add(e1.MulScalar(b.opts.Radius * math.Cos(phi))).Add(e2.MulScalar(b.opts.Radius * math.Sin(phi)))
		}
		return pts
	}
	names := make([]string, n)
	for k := range names {
		names[k] = p.round()
	}
	return solid.Loft(solid.LoftSpec{
		Sections:  loftRings(p, b.opts.Radius, ring),
		SideNames: names,
		CapNames:  [2]string{p.prefix + SuffixTubeEndCap + "0", p.prefix + SuffixTubeEndCap + "1"},
		Closed:    p.edge.Closed,
	}, solid.WithEngine(b.eng))
}

// wedge is the region bounded by the two faces and the two tangent lines.
// The carving body is the wedge minus the tube.
func (b *builder) wedge(p *piece) (*solid.Solid, error) {
	ring := func(s section) []v3.Vec { return []v3.Vec{s.out, s.tA, s.center, s.tB} }
	return solid.Loft(solid.LoftSpec{
		Sections: loftRings(p, b.opts.Radius, ring),
		SideNames: []string{
			p.prefix + SuffixWedgeA, p.prefix + SuffixSurfaceCA,
			p.prefix + SuffixSurfaceCB, p.prefix + SuffixWedgeB,
		},
		CapNames: [2]string{p.prefix + SuffixWedgeEndCap + "0", p.prefix + SuffixWedgeEndCap + "1"},
		Closed:   p.edge.Closed,
	}, solid.WithEngine(b.eng))
}
