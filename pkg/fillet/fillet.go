// Package fillet rounds the edges of a solid.
//
// Every selected edge gets an analytic carving body: the region between
// the edge and a circular arc tangent to both faces, swept along the edge.
// Inset bodies are subtracted from the base, outset bodies are added to
// it. Where several fillets end at one vertex their end sections are
// joined by a convex hull. The boolean result then goes through a fixed
// sequence of best-effort cleanup stages.
package fillet

import (
	"context"
	"fmt"

	"github.com/chazu/brep/pkg/edge"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/pipeline"
	"github.com/chazu/brep/pkg/solid"
)

// Result is the outcome of Fillet.
type Result struct {
	// Solid is the filleted solid, or a copy of the base when no edge
	// could be filleted.
	Solid *solid.Solid
	// RoundFaces names the round face of every filleted edge still present
	// in Solid.
	RoundFaces []string
	// Failures lists the skipped edges and corners.
	Failures []*EdgeError
	// StageFailures lists cleanup stages that failed and were skipped.
	StageFailures []pipeline.Failure
	// Artifacts holds the construction solids when Options.Debug is set.
	Artifacts []*solid.Solid
}

type builder struct {
	opts Options
	base *solid.Solid
	eng  kernel.Engine
}

// tool is one boolean operand applied to the base.
type tool struct {
	name  string
	dir   Direction
	s     *solid.Solid
	piece *piece
}

// Fillet rounds the edges named by refs with opts.Radius. A ref is either
// "FACE_A|FACE_B" or a single face name selecting all of that face's
// boundaries. Per-edge failures are collected in Result.Failures; only
// invalid options and cancellation return an error.
func Fillet(ctx context.Context, base *solid.Solid, refs []string, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	log := kernel.Logger()
	b := &builder{opts: opts, base: base, eng: base.Engine()}
	res := &Result{}

	var pieces []*piece
	seen := make(map[string]bool)
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			releasePieces(pieces)
			return nil, fmt.Errorf("fillet: %w", err)
		}
		edges, err := edge.Resolve(base, ref)
		if err != nil {
			res.fail(ref, err)
			continue
		}
		for _, e := range edges {
			if seen[e.Key()] {
				continue
			}
			seen[e.Key()] = true
			p, err := b.newPiece(ref, e, len(pieces))
			if err != nil {
				res.fail(e.Name(), err)
				continue
			}
			log.Debug("fillet: built body", "edge", e.Name(), "face", p.prefix, "direction", p.dir, "convex", e.Convex)
			pieces = append(pieces, p)
		}
	}

	tools := make([]tool, 0, len(pieces))
	for _, p := range pieces {
		tools = append(tools, tool{name: p.edge.Name(), dir: p.dir, s: p.body, piece: p})
	}
	var corners []*corner
	if opts.CornerBlend {
		var failures []*EdgeError
		corners, failures = b.corners(pieces)
		res.Failures = append(res.Failures, failures...)
		for _, c := range corners {
			tools = append(tools, tool{name: c.name, dir: c.dir, s: c.hull})
		}
	}
	if opts.Debug {
		res.Artifacts = b.artifacts(pieces, corners)
	}

	cur := base
	for _, t := range tools {
		if err := ctx.Err(); err != nil {
			releaseTools(tools)
			if cur != base {
				cur.Release()
			}
			return nil, fmt.Errorf("fillet: %w", err)
		}
		next, err := combine(cur, t)
		t.s.Release()
		if err != nil {
			res.fail(t.name, err)
			continue
		}
		if cur != base {
			cur.Release()
		}
		cur = next
		if t.piece != nil {
			t.piece.applied = true
		}
	}

	applied := make([]*piece, 0, len(pieces))
	for _, p := range pieces {
		if p.applied {
			applied = append(applied, p)
		}
	}
	if len(applied) == 0 {
		if cur != base {
			cur.Release()
		}
		log.Warn("fillet: no edge filleted, returning base unchanged", "edges", len(refs), "failures", len(res.Failures))
		res.Solid = base.Clone()
		return res, nil
	}

	before := cur.Clone()
	res.StageFailures = pipeline.Run(ctx, b.stages(cur, applied)...)
	if _, err := cur.Manifold(); err != nil {
		log.Warn("fillet: cleanup opened the mesh, keeping the boolean result", "error", err)
		res.StageFailures = append(res.StageFailures, pipeline.Failure{Stage: "verify-closed", Err: err})
		cur.Release()
		cur = before
	}
	res.Solid = cur
	for _, p := range applied {
		if cur.HasFace(p.round()) {
			res.RoundFaces = append(res.RoundFaces, p.round())
		}
	}
	log.Info("fillet: done", "filleted", len(applied), "failures", len(res.Failures),
		"stageFailures", len(res.StageFailures), "triangles", cur.TriangleCount())
	return res, nil
}

func (r *Result) fail(name string, err error) {
	kernel.Logger().Warn("fillet: skipped", "edge", name, "error", err)
	r.Failures = append(r.Failures, &EdgeError{Edge: name, Err: err})
}

// combine applies one tool. A readback the engine cannot close comes back
// as kernel.ErrNotManifold and the tool is skipped by the caller.
func combine(s *solid.Solid, t tool) (*solid.Solid, error) {
	if t.dir == Inset {
		return s.Subtract(t.s)
	}
	return s.Union(t.s)
}

// artifacts builds the debug solids. Tube and wedge are only needed here;
// the carving body is built directly as their difference.
func (b *builder) artifacts(pieces []*piece, corners []*corner) []*solid.Solid {
	var out []*solid.Solid
	for _, p := range pieces {
		for _, mk := range []func(*piece) (*solid.Solid, error){b.tube, b.wedge} {
			s, err := mk(p)
			if err != nil {
				kernel.Logger().Debug("fillet: debug artifact failed", "face", p.prefix, "error", err)
				continue
			}
			out = append(out, s)
		}
		out = append(out, p.body.Clone())
	}
	for _, c := range corners {
		out = append(out, c.hull.Clone())
	}
	return out
}

func releasePieces(pieces []*piece) {
	for _, p := range pieces {
		p.body.Release()
	}
}

func releaseTools(tools []tool) {
	for _, t := range tools {
		t.s.Release()
	}
}
