package script

import (
	"context"
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/brep/pkg/chamfer"
	"github.com/chazu/brep/pkg/fillet"
	"github.com/chazu/brep/pkg/kernel/sdfx"
	"github.com/chazu/brep/pkg/solid"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a solid so it can be passed between builtins.
type sexpSolid struct {
	s *solid.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid :faces %d :triangles %d)", len(s.s.FaceNames()), s.s.TriangleCount())
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (*solid.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.s, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toStrings accepts a single string or a list of strings.
func toStrings(s zygo.Sexp) ([]string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return []string{str.S}, nil
	}
	items, err := listItems(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		str, err := stringValue(it)
		if err != nil {
			return nil, err
		}
		out = append(out, str)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Evaluation state
// ---------------------------------------------------------------------------

type state struct {
	ctx    context.Context
	eng    *Engine
	result *Result
	anon   int
}

func (st *state) opts() []solid.Option {
	return []solid.Option{solid.WithEngine(st.eng.kernel)}
}

// name returns the leading string argument, or a generated name.
func (st *state) name(prefix string, pa *callArgs) string {
	if len(pa.pos) > 0 {
		if str, ok := pa.pos[0].(*zygo.SexpStr); ok {
			pa.pos = pa.pos[1:]
			return str.S
		}
	}
	st.anon++
	return fmt.Sprintf("%s%d", prefix, st.anon)
}

func kwFloat(pa callArgs, key string, def float64) (float64, error) {
	v, ok := pa.named[key]
	if !ok {
		return def, nil
	}
	f, err := number(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// sizeArg reads a vec3 from :size or the first positional argument.
func sizeArg(pa callArgs) (v3.Vec, error) {
	if v, ok := pa.named["size"]; ok {
		return toVec3(v)
	}
	if len(pa.pos) > 0 {
		return toVec3(pa.pos[0])
	}
	return v3.Vec{}, fmt.Errorf("missing :size")
}

func (st *state) fromSDF(name string, s sdf.SDF3, err error) (zygo.Sexp, error) {
	if err != nil {
		return zygo.SexpNull, err
	}
	m, err := st.eng.mesher.Mesh(s)
	if err != nil {
		return zygo.SexpNull, err
	}
	out, err := solid.FromMesh(name, m, st.opts()...)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{s: out}, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the kernel builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *state) {
	fn := func(name string, f func(pa callArgs) (zygo.Sexp, error)) {
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := f(splitArgs(args))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return v, nil
		})
	}

	// (vec3 1 2 3)
	fn("vec3", func(pa callArgs) (zygo.Sexp, error) {
		if len(pa.pos) != 3 {
			return zygo.SexpNull, fmt.Errorf("requires exactly 3 arguments, got %d", len(pa.pos))
		}
		var c [3]float64
		for i, a := range pa.pos {
			f, err := number(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (box "B" :size (vec3 10 10 10))
	fn("box", func(pa callArgs) (zygo.Sexp, error) {
		name := st.name("BOX", &pa)
		size, err := sizeArg(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := solid.Box(name, size, st.opts()...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: s}, nil
	})

	// (cylinder "C" :radius 2 :height 10 :segments 32)
	fn("cylinder", func(pa callArgs) (zygo.Sexp, error) {
		name := st.name("CYL", &pa)
		r, err := kwFloat(pa, "radius", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		h, err := kwFloat(pa, "height", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		segs, err := kwFloat(pa, "segments", 32)
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := solid.Cylinder(name, r, h, int(segs), st.opts()...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: s}, nil
	})

	// (sphere "S" :radius 5), meshed from a signed distance field.
	fn("sphere", func(pa callArgs) (zygo.Sexp, error) {
		name := st.name("SPHERE", &pa)
		r, err := kwFloat(pa, "radius", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := sdfx.Sphere(r)
		return st.fromSDF(name, s, err)
	})

	// (rounded-box "R" :size (vec3 10 10 10) :round 1)
	fn("rounded_box", func(pa callArgs) (zygo.Sexp, error) {
		name := st.name("RBOX", &pa)
		size, err := sizeArg(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		round, err := kwFloat(pa, "round", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := sdfx.Box(size.X, size.Y, size.Z, round)
		return st.fromSDF(name, s, err)
	})

	// (hull "H" (list (vec3 0 0 0) ...))
	fn("hull", func(pa callArgs) (zygo.Sexp, error) {
		name := st.name("HULL", &pa)
		if len(pa.pos) < 1 {
			return zygo.SexpNull, fmt.Errorf("requires a list of points")
		}
		items, err := listItems(pa.pos[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		pts := make([]v3.Vec, 0, len(items))
		for _, it := range items {
			p, err := toVec3(it)
			if err != nil {
				return zygo.SexpNull, err
			}
			pts = append(pts, p)
		}
		s, err := solid.Hull(name, pts, st.opts()...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: s}, nil
	})

	// (translate s (vec3 1 0 0))
	fn("translate", func(pa callArgs) (zygo.Sexp, error) {
		s, v, err := solidAndVec(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: s.Translate(v)}, nil
	})

	// (rotate s (vec3 0 0 90)), degrees about x, then y, then z.
	fn("rotate", func(pa callArgs) (zygo.Sexp, error) {
		s, v, err := solidAndVec(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		m := sdf.RotateZ(sdf.DtoR(v.Z)).Mul(sdf.RotateY(sdf.DtoR(v.Y))).Mul(sdf.RotateX(sdf.DtoR(v.X)))
		return &sexpSolid{s: s.Transform(m)}, nil
	})

	boolean := func(op solid.Op) func(pa callArgs) (zygo.Sexp, error) {
		return func(pa callArgs) (zygo.Sexp, error) {
			if len(pa.pos) < 2 {
				return zygo.SexpNull, fmt.Errorf("requires at least 2 solids")
			}
			acc, err := toSolid(pa.pos[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			for i, a := range pa.pos[1:] {
				b, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("operand %d: %w", i+2, err)
				}
				if acc, err = solid.Boolean(op, acc, b); err != nil {
					return zygo.SexpNull, err
				}
			}
			return &sexpSolid{s: acc}, nil
		}
	}
	fn("union", boolean(solid.OpUnion))
	fn("subtract", boolean(solid.OpSubtract))
	fn("intersect", boolean(solid.OpIntersect))

	// (fillet s :edges (list "A|B") :radius 2 :direction :inset :resolution 16)
	fn("fillet", func(pa callArgs) (zygo.Sexp, error) {
		s, edges, dir, err := featureArgs(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		o := fillet.DefaultOptions()
		o.Direction = dir
		if o.Radius, err = kwFloat(pa, "radius", o.Radius); err != nil {
			return zygo.SexpNull, err
		}
		res, err := kwFloat(pa, "resolution", float64(o.Resolution))
		if err != nil {
			return zygo.SexpNull, err
		}
		o.Resolution = int(res)
		out, err := fillet.Fillet(st.ctx, s, edges, o)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: out.Solid}, nil
	})

	// (chamfer s :edges "TOP" :distance 1 :direction :outset)
	fn("chamfer", func(pa callArgs) (zygo.Sexp, error) {
		s, edges, dir, err := featureArgs(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		o := chamfer.DefaultOptions()
		o.Direction = dir
		if o.Distance, err = kwFloat(pa, "distance", o.Distance); err != nil {
			return zygo.SexpNull, err
		}
		out, err := chamfer.Chamfer(st.ctx, s, edges, o)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: out.Solid}, nil
	})

	// (rename-face s "from" "to")
	fn("rename_face", func(pa callArgs) (zygo.Sexp, error) {
		if len(pa.pos) != 3 {
			return zygo.SexpNull, fmt.Errorf("requires a solid and two names")
		}
		s, err := toSolid(pa.pos[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		from, err := stringValue(pa.pos[1])
		if err != nil {
			return zygo.SexpNull, err
		}
		to, err := stringValue(pa.pos[2])
		if err != nil {
			return zygo.SexpNull, err
		}
		c := s.Clone()
		if err := c.RenameFace(from, to); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{s: c}, nil
	})

	// (defsolid "name" s) records s in the evaluation result.
	fn("defsolid", func(pa callArgs) (zygo.Sexp, error) {
		if len(pa.pos) != 2 {
			return zygo.SexpNull, fmt.Errorf("requires a name and a solid")
		}
		name, err := stringValue(pa.pos[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := toSolid(pa.pos[1])
		if err != nil {
			return zygo.SexpNull, err
		}
		if _, ok := st.result.Named[name]; !ok {
			st.result.Order = append(st.result.Order, name)
		}
		st.result.Named[name] = s
		return pa.pos[1], nil
	})

	query := func(f func(s *solid.Solid, rest []zygo.Sexp) (zygo.Sexp, error)) func(pa callArgs) (zygo.Sexp, error) {
		return func(pa callArgs) (zygo.Sexp, error) {
			if len(pa.pos) < 1 {
				return zygo.SexpNull, fmt.Errorf("requires a solid")
			}
			s, err := toSolid(pa.pos[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			return f(s, pa.pos[1:])
		}
	}
	fn("volume", query(func(s *solid.Solid, _ []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpFloat{Val: s.Volume()}, nil
	}))
	fn("area", query(func(s *solid.Solid, _ []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpFloat{Val: s.SurfaceArea()}, nil
	}))
	fn("face_area", query(func(s *solid.Solid, rest []zygo.Sexp) (zygo.Sexp, error) {
		if len(rest) != 1 {
			return zygo.SexpNull, fmt.Errorf("requires a face name")
		}
		name, err := stringValue(rest[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: s.FaceArea(name)}, nil
	}))
	fn("face_names", query(func(s *solid.Solid, _ []zygo.Sexp) (zygo.Sexp, error) {
		return zygo.MakeList(lo.Map(s.FaceNames(), func(n string, _ int) zygo.Sexp {
			return &zygo.SexpStr{S: n}
		})), nil
	}))
	fn("triangle_count", query(func(s *solid.Solid, _ []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(s.TriangleCount())}, nil
	}))
}

func solidAndVec(pa callArgs) (*solid.Solid, v3.Vec, error) {
	if len(pa.pos) != 2 {
		return nil, v3.Vec{}, fmt.Errorf("requires a solid and a vec3")
	}
	s, err := toSolid(pa.pos[0])
	if err != nil {
		return nil, v3.Vec{}, err
	}
	v, err := toVec3(pa.pos[1])
	return s, v, err
}

// featureArgs reads the solid, :edges and :direction shared by fillet and
// chamfer.
func featureArgs(pa callArgs) (*solid.Solid, []string, fillet.Direction, error) {
	if len(pa.pos) < 1 {
		return nil, nil, fillet.Auto, fmt.Errorf("requires a solid")
	}
	s, err := toSolid(pa.pos[0])
	if err != nil {
		return nil, nil, fillet.Auto, err
	}
	ev, ok := pa.named["edges"]
	if !ok {
		return nil, nil, fillet.Auto, fmt.Errorf("missing :edges")
	}
	edges, err := toStrings(ev)
	if err != nil {
		return nil, nil, fillet.Auto, fmt.Errorf("edges: %w", err)
	}
	dir := fillet.Auto
	if v, ok := pa.named["direction"]; ok {
		name, err := keywordOrString(v)
		if err != nil {
			return nil, nil, fillet.Auto, fmt.Errorf("direction: %w", err)
		}
		if dir, err = fillet.ParseDirection(name); err != nil {
			return nil, nil, fillet.Auto, err
		}
	}
	return s, edges, dir, nil
}
