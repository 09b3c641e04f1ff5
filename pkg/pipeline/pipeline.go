// Package pipeline runs best-effort processing stages. A failing stage is
// logged and skipped; later stages still run on whatever state the failed
// stage left behind.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chazu/brep/pkg/kernel"
)

// Stage is one named, fallible step.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Failure records a stage that returned an error or panicked.
type Failure struct {
	Stage string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("stage %s: %v", f.Stage, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// PanicError wraps a value recovered from a panicking stage.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run executes stages in order and returns the failures. It stops early
// only when ctx is done.
func Run(ctx context.Context, stages ...Stage) []Failure {
	log := kernel.Logger()
	var failures []Failure
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			failures = append(failures, Failure{Stage: st.Name, Err: err})
			break
		}
		start := time.Now()
		err := runStage(ctx, st)
		if err != nil {
			log.Warn("pipeline: stage failed", "stage", st.Name, "error", err)
			failures = append(failures, Failure{Stage: st.Name, Err: err})
			continue
		}
		log.Debug("pipeline: stage done", "stage", st.Name, slog.Duration("elapsed", time.Since(start)))
	}
	return failures
}

func runStage(ctx context.Context, st Stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return st.Run(ctx)
}
