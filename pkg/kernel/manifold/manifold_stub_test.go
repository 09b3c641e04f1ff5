//go:build !manifold

package manifold

import (
	"errors"
	"testing"
)

func TestNewReturnsError(t *testing.T) {
	e, err := New(nil)
	if err == nil {
		t.Fatal("New() error = nil, want non-nil error when manifold tag is not set")
	}
	if e != nil {
		t.Fatal("New() returned non-nil engine, want nil when manifold tag is not set")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("New() error = %v, want ErrUnavailable", err)
	}
}
