package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContinuesPastFailures(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	step := func(name string, err error) Stage {
		return Stage{Name: name, Run: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	failures := Run(context.Background(),
		step("a", nil),
		step("b", boom),
		Stage{Name: "c", Run: func(context.Context) error {
			order = append(order, "c")
			panic("bad index")
		}},
		step("d", nil),
	)

	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	require.Len(t, failures, 2)
	assert.Equal(t, "b", failures[0].Stage)
	assert.ErrorIs(t, failures[0], boom)
	assert.Equal(t, "c", failures[1].Stage)
	var pe *PanicError
	require.ErrorAs(t, failures[1], &pe)
	assert.Equal(t, "bad index", pe.Value)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	failures := Run(ctx,
		Stage{Name: "first", Run: func(context.Context) error { ran++; cancel(); return nil }},
		Stage{Name: "second", Run: func(context.Context) error { ran++; return nil }},
	)

	assert.Equal(t, 1, ran)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], context.Canceled)
}
