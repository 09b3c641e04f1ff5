package manifold

import "errors"

// ErrUnavailable is returned by New in builds without the manifold tag.
var ErrUnavailable = errors.New("manifold engine not available: build with -tags=manifold")
