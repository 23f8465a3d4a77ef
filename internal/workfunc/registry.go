// Package workfunc resolves the `worker` config/CLI value to a concrete
// redbike.WorkFunc, the counterpart to internal/strategy's resolution of
// the same value to a redbike.Strategy. Splitting Strategy and WorkFunc
// lets a queue layout and a job body vary independently (see
// redbike.go); this package mirrors strategy.Registry's static
// name -> Factory map so the CLI can resolve a concrete WorkFunc by name
// without a dynamic class loader.
package workfunc

import (
	"github.com/teranos/redbike"
	"github.com/teranos/redbike/errors"
)

// Factory builds a redbike.WorkFunc from the initstring portion of a
// config's `worker` value, mirroring strategy.Factory.
type Factory func(initstring string) (redbike.WorkFunc, error)

// Registry is a static name -> Factory map. Embedding programs register
// their own job bodies under the same name their strategy is registered
// under, then point the `worker` config value at that one name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry pre-populated under the name
// "roundrobin" (matching the reference strategy's name) with EchoWork, a
// demonstration WorkFunc that logs the jobid and completes immediately
// with no backoff. It exists so `redbike work` is runnable out of the
// box; real deployments register their own job body under the name
// their config's `worker` value selects.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("roundrobin", func(initstring string) (redbike.WorkFunc, error) {
		return EchoWork, nil
	})
	return r
}

// Register adds or replaces a named WorkFunc factory.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Build resolves "<name>:<initstring>" (or bare "<name>") into a
// concrete WorkFunc, rejecting unknown names.
func (r *Registry) Build(spec string) (redbike.WorkFunc, error) {
	name, initstring := splitSpec(spec)
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Newf("unknown worker job body %q", name)
	}
	return factory(initstring)
}

func splitSpec(spec string) (name, initstring string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			return spec[:i], spec[i+1:]
		}
	}
	return spec, ""
}
