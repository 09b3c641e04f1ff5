package solid

import (
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/kernel/csg"
)

var defaultEngine = csg.New()

// DefaultEngine returns the process-wide engine used by solids created
// without WithEngine.
func DefaultEngine() kernel.Engine {
	return defaultEngine
}

type options struct {
	engine kernel.Engine
}

// Option configures a Solid constructor.
type Option func(*options)

// WithEngine selects the engine a solid builds against. Solids combined by
// a boolean must share an engine. A nil engine selects DefaultEngine.
func WithEngine(e kernel.Engine) Option {
	return func(o *options) {
		if e == nil {
			e = defaultEngine
		}
		o.engine = e
	}
}

func applyOptions(opts []Option) options {
	o := options{engine: defaultEngine}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
