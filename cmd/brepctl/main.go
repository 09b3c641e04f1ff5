// Command brepctl evaluates a solid modelling script and prints a summary
// of the solids it builds.
//
//	brepctl [-v] [-timeout 30s] [-stl out.stl] [-json meshes.json] script.lisp
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/kernel/manifold"
	"github.com/chazu/brep/pkg/kernel/sdfx"
	"github.com/chazu/brep/pkg/script"
	"github.com/chazu/brep/pkg/solid"
	"github.com/chazu/brep/pkg/tessellate"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("brepctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "enable debug logging")
	timeout := fs.Duration("timeout", script.EvalTimeout, "evaluation time limit")
	engineName := fs.String("engine", "csg", "boolean engine: csg or manifold (needs -tags=manifold)")
	cells := fs.Int("cells", sdfx.DefaultCells, "marching cubes cells for sdf primitives")
	stlPath := fs.String("stl", "", "write the result solid to this STL file")
	jsonPath := fs.String("json", "", "write per-face render meshes of the result to this JSON file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: brepctl [flags] script.lisp")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	kernel.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "brepctl: %v\n", err)
		return 1
	}

	k, err := kernelEngine(*engineName)
	if err != nil {
		fmt.Fprintf(stderr, "brepctl: %v\n", err)
		return 2
	}
	eng := script.NewEngine(script.WithTimeout(*timeout), script.WithCells(*cells), script.WithKernel(k))
	res, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		fmt.Fprintf(stderr, "brepctl: %s: %v\n", path, err)
		return 1
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(stderr, "%s: %v\n", path, e)
		}
		return 1
	}

	summarize(stdout, res)

	target := result(res)
	if (*stlPath != "" || *jsonPath != "") && target == nil {
		fmt.Fprintln(stderr, "brepctl: script produced no solid to export")
		return 1
	}
	if *stlPath != "" {
		if err := tessellate.SaveSTL(*stlPath, target); err != nil {
			fmt.Fprintf(stderr, "brepctl: %v\n", err)
			return 1
		}
	}
	if *jsonPath != "" {
		if err := writeMeshes(*jsonPath, target); err != nil {
			fmt.Fprintf(stderr, "brepctl: %v\n", err)
			return 1
		}
	}
	return 0
}

func kernelEngine(name string) (kernel.Engine, error) {
	switch name {
	case "csg":
		return solid.DefaultEngine(), nil
	case "manifold":
		return manifold.New(kernel.DefaultAllocator())
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

// result is the last expression's solid, else the last defsolid.
func result(res *script.Result) *solid.Solid {
	if res.Solid != nil {
		return res.Solid
	}
	if n := len(res.Order); n > 0 {
		return res.Named[res.Order[n-1]]
	}
	return nil
}

func summarize(w io.Writer, res *script.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOLID\tVOLUME\tAREA\tFACES\tTRIANGLES")
	row := func(name string, s *solid.Solid) {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%d\t%d\n", name, s.Volume(), s.SurfaceArea(), len(s.FaceNames()), s.TriangleCount())
	}
	for _, name := range res.Order {
		row(name, res.Named[name])
	}
	if res.Solid != nil {
		row("<result>", res.Solid)
	}
	tw.Flush()
	if res.Solid == nil && len(res.Order) == 0 {
		fmt.Fprintf(w, "value: %s\n", res.Value)
	}
}
