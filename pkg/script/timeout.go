package script

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 30 * time.Second

type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// await blocks until the evaluation of generation gen reports on ch or ctx
// ends. A result that arrives after a newer Evaluate call started is
// discarded. On timeout the evaluating goroutine keeps running until its
// builtins observe the cancelled context.
func (e *Engine) await(ctx context.Context, ch <-chan evalResult, gen uint64) (*Result, []EvalError, error) {
	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, errors.New("evaluation superseded by newer request")
		}
		return res.result, res.errors, res.err
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("evaluation timed out after %s", e.timeout)
	}
}
