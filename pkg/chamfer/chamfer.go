// Package chamfer bevels the edges of a solid with a flat strip.
//
// It resolves edges like package fillet but builds a triangular prism per
// edge, and does no corner blending and no seam cleanup.
package chamfer

import (
	"context"
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/edge"
	"github.com/chazu/brep/pkg/fillet"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/solid"
)

// Face name suffixes, appended to the per-edge prefix.
const (
	SuffixBevel  = "_BEVEL"
	SuffixSideA  = "_SIDE_A"
	SuffixSideB  = "_SIDE_B"
	SuffixEndCap = "_END_CAP_"
)

var (
	ErrInvalidDistance = errors.New("chamfer: distance must be positive")
	ErrTangentFaces    = errors.New("chamfer: faces are tangent at edge")
	ErrFoldedFaces     = errors.New("chamfer: faces fold back at edge")
)

// Direction is shared with fillets: Inset subtracts, Outset unions, Auto
// picks by convexity.
type Direction = fillet.Direction

const (
	Auto   = fillet.Auto
	Inset  = fillet.Inset
	Outset = fillet.Outset
)

// Options configures Chamfer.
type Options struct {
	// Distance is measured from the edge along each face.
	Distance  float64
	Direction Direction
	// Name prefixes generated faces; edge k gets "<Name><k>".
	Name  string
	Debug bool
}

// DefaultOptions returns a 1 unit automatic chamfer.
func DefaultOptions() Options {
	return Options{Distance: 1, Direction: Auto, Name: "CHAMFER"}
}

// EdgeError records why one edge selection was skipped.
type EdgeError struct {
	Edge string
	Err  error
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("chamfer: edge %s: %v", e.Edge, e.Err)
}

func (e *EdgeError) Unwrap() error { return e.Err }

// Result is the outcome of Chamfer.
type Result struct {
	// Solid is the chamfered solid, or a copy of the base when every
	// edge failed.
	Solid *solid.Solid
	// BevelFaces names the bevel of every chamfered edge present in Solid.
	BevelFaces []string
	Failures   []*EdgeError
	// Artifacts holds the bevel strips when Options.Debug is set.
	Artifacts []*solid.Solid
}

type strip struct {
	name   string
	prefix string
	dir    Direction
	s      *solid.Solid
}

// Chamfer bevels the edges named by refs. Refs follow fillet.Fillet.
func Chamfer(ctx context.Context, base *solid.Solid, refs []string, opts Options) (*Result, error) {
	if !(opts.Distance > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDistance, opts.Distance)
	}
	if opts.Name == "" {
		opts.Name = DefaultOptions().Name
	}
	log := kernel.Logger()
	res := &Result{}
	fail := func(name string, err error) {
		log.Warn("chamfer: skipped", "edge", name, "error", err)
		res.Failures = append(res.Failures, &EdgeError{Edge: name, Err: err})
	}

	var strips []strip
	seen := make(map[string]bool)
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			for _, st := range strips {
				st.s.Release()
			}
			return nil, fmt.Errorf("chamfer: %w", err)
		}
		edges, err := edge.Resolve(base, ref)
		if err != nil {
			fail(ref, err)
			continue
		}
		for _, e := range edges {
			if seen[e.Key()] {
				continue
			}
			seen[e.Key()] = true
			st, err := build(base.Engine(), e, opts, len(strips))
			if err != nil {
				fail(e.Name(), err)
				continue
			}
			strips = append(strips, st)
		}
	}

	cur := base
	applied := 0
	for i, st := range strips {
		if err := ctx.Err(); err != nil {
			for _, rest := range strips[i:] {
				rest.s.Release()
			}
			if cur != base {
				cur.Release()
			}
			return nil, fmt.Errorf("chamfer: %w", err)
		}
		if opts.Debug {
			res.Artifacts = append(res.Artifacts, st.s.Clone())
		}
		var next *solid.Solid
		var err error
		if st.dir == Inset {
			next, err = cur.Subtract(st.s)
		} else {
			next, err = cur.Union(st.s)
		}
		st.s.Release()
		if err != nil {
			fail(st.name, err)
			continue
		}
		if cur != base {
			cur.Release()
		}
		cur = next
		applied++
		if cur.HasFace(st.prefix + SuffixBevel) {
			res.BevelFaces = append(res.BevelFaces, st.prefix+SuffixBevel)
		}
	}
	if cur == base {
		log.Warn("chamfer: no edge chamfered, returning base unchanged", "edges", len(refs))
		res.Solid = base.Clone()
		return res, nil
	}
	res.Solid = cur
	log.Info("chamfer: done", "chamfered", applied, "failures", len(res.Failures))
	return res, nil
}

// build sweeps the triangle [out, tA, tB] along e. tA and tB lie on the
// faces, or on their extensions past the edge, at Distance from it.
func build(eng kernel.Engine, e *edge.Edge, opts Options, k int) (strip, error) {
	dir := opts.Direction
	if dir == Auto {
		dir = Outset
		if e.Convex {
			dir = Inset
		}
	}
	sigma := -1.0
	if (dir == Inset) == e.Convex {
		sigma = 1
	}
	s := 1.0
	if dir == Inset {
		s = -1
	}
	d := opts.Distance
	delta := max(1e-3*d, 5e-4)

	rings := make([][]v3.Vec, len(e.Points))
	for i, p := range e.Points {
		nA, nB := e.NormalA[i], e.NormalB[i]
		dot := nA.Dot(nB)
		if dot > 1-1e-6 || e.InA[i] == (v3.Vec{}) || e.InB[i] == (v3.Vec{}) {
			return strip{}, fmt.Errorf("%w (point %d)", ErrTangentFaces, i)
		}
		if 1+dot < 1e-6 {
			return strip{}, fmt.Errorf("%w (point %d)", ErrFoldedFaces, i)
		}
		rings[i] = []v3.Vec{
			p.Sub(nA.Add(nB).MulScalar(s * delta)),
			p.Add(e.InA[i].MulScalar(sigma * d)),
			p.Add(e.InB[i].MulScalar(sigma * d)),
		}
	}
	if !e.Closed && dir == Inset {
		ext := 0.05 * d
		extend(rings[0], e.Tangent(0).MulScalar(-ext))
		extend(rings[len(rings)-1], e.Tangent(len(rings)-1).MulScalar(ext))
	}

	prefix := fmt.Sprintf("%s%d", opts.Name, k)
	body, err := solid.Loft(solid.LoftSpec{
		Sections:  rings,
		SideNames: []string{prefix + SuffixSideA, prefix + SuffixBevel, prefix + SuffixSideB},
		CapNames:  [2]string{prefix + SuffixEndCap + "0", prefix + SuffixEndCap + "1"},
		Closed:    e.Closed,
	}, solid.WithEngine(eng))
	if err != nil {
		return strip{}, err
	}
	if math.Abs(body.Volume()) < 1e-12 {
		body.Release()
		return strip{}, errors.New("empty bevel")
	}
	body.SetFaceMetadata(prefix+SuffixBevel, &solid.Metadata{
		Source:       "chamfer",
		FeatureID:    prefix,
		Role:         "bevel",
		TangentFaces: []string{e.FaceA, e.FaceB},
	})
	return strip{name: e.Name(), prefix: prefix, dir: dir, s: body}, nil
}

func extend(pts []v3.Vec, d v3.Vec) {
	for k := range pts {
		pts[k] = pts[k].Add(d)
	}
}
