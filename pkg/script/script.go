// Package script evaluates Lisp programs that build solids. It wraps
// zygomys in a sandboxed environment with kernel builtins registered.
package script

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/kernel/sdfx"
	"github.com/chazu/brep/pkg/solid"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result is the output of a successful evaluation.
type Result struct {
	// Solid is the value of the last expression when it is a solid.
	Solid *solid.Solid
	// Named holds the solids bound with defsolid.
	Named map[string]*solid.Solid
	// Order lists the defsolid names in evaluation order.
	Order []string
	// Value is the printed value of the last expression.
	Value string
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	kernel  kernel.Engine
	mesher  *sdfx.Mesher
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds a single evaluation. Non-positive values keep
// EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithKernel sets the engine new solids are built on.
func WithKernel(k kernel.Engine) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithCells sets the marching cubes resolution of sdf primitives.
func WithCells(n int) Option {
	return func(e *Engine) { e.mesher = sdfx.New(n) }
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout: EvalTimeout,
		kernel:  solid.DefaultEngine(),
		mesher:  sdfx.New(sdfx.DefaultCells),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs source and returns the solids it built.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(ctx, source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return e.await(ctx, ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(ctx context.Context, source string) (*Result, []EvalError, error) {
	res := &Result{Named: make(map[string]*solid.Solid)}
	if strings.TrimSpace(source) == "" {
		return res, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	st := &state{ctx: ctx, eng: e, result: res}
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	v, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	if s, ok := v.(*sexpSolid); ok {
		res.Solid = s.s
	}
	res.Value = v.SexpString(nil)
	kernel.Logger().Debug("script: evaluated", "named", len(res.Named), "value", res.Value)
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
