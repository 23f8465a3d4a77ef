package strategy

import (
	"github.com/teranos/redbike"
	"github.com/teranos/redbike/errors"
)

// Factory builds a redbike.Strategy from the initstring portion of a
// config's `worker` value (e.g. "roundrobin:A:B:C" -> name "roundrobin",
// init "A:B:C").
type Factory func(initstring string) (redbike.Strategy, error)

// Registry is a static name -> Factory map rather than a dynamic
// dotted-path class loader: a statically typed rewrite has no runtime
// class loader, so config names a registered strategy and unknown
// names fail fast at startup instead of at first use.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry pre-populated with the reference
// RoundRobin strategy under the name "roundrobin".
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("roundrobin", func(initstring string) (redbike.Strategy, error) {
		return NewRoundRobin(initstring)
	})
	return r
}

// Register adds or replaces a named strategy factory.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Build resolves "<name>:<initstring>" (or bare "<name>" with an empty
// initstring) into a concrete strategy, rejecting unknown names.
func (r *Registry) Build(spec string) (redbike.Strategy, error) {
	name, initstring := splitSpec(spec)
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Newf("unknown worker strategy %q", name)
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
