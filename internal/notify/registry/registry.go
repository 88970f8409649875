// internal/notify/registry/registry.go

// Package registry holds the process-wide mapping from signals to handler
// bindings. The registry is built once at startup from a fixed list of
// providers and is read-only afterwards.
package registry

import (
	"fmt"

	"github.com/druids/gonotify/internal/notify/handler"
	"github.com/druids/gonotify/internal/notify/signal"
)

// Provider contributes handler bindings during startup. Providers replace the
// import-triggers-registration pattern: activation is an explicit walk over a
// configured list.
type Provider struct {
	Name     string
	Bindings func() []*handler.Binding
}

// Registry maps signals to their registered bindings.
type Registry struct {
	bySignal map[signal.Signal][]*handler.Binding
	seen     map[string]struct{}
}

func New() *Registry {
	return &Registry{
		bySignal: map[signal.Signal][]*handler.Binding{},
		seen:     map[string]struct{}{},
	}
}

// Build creates a registry from the providers whose names appear in enabled.
// An empty enabled list activates every provider.
func Build(providers []Provider, enabled []string) (*Registry, error) {
	active := map[string]struct{}{}
	for _, name := range enabled {
		active[name] = struct{}{}
	}

	known := map[string]struct{}{}
	r := New()
	for _, p := range providers {
		known[p.Name] = struct{}{}
		if len(active) > 0 {
			if _, ok := active[p.Name]; !ok {
				continue
			}
		}
		for _, b := range p.Bindings() {
			if err := r.Register(b); err != nil {
				return nil, fmt.Errorf("provider %q: %w", p.Name, err)
			}
		}
	}

	for name := range active {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown handler provider %q", name)
		}
	}
	return r, nil
}

// Register adds a binding. Registering the same (signal, name) identity twice
// is a no-op, so repeated provider activation cannot duplicate handlers.
func (r *Registry) Register(b *handler.Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}

	key := string(b.Signal) + "\x00" + b.Name
	if _, dup := r.seen[key]; dup {
		return nil
	}
	r.seen[key] = struct{}{}
	r.bySignal[b.Signal] = append(r.bySignal[b.Signal], b)
	return nil
}

// Bindings returns the bindings registered for a signal, in registration order.
func (r *Registry) Bindings(s signal.Signal) []*handler.Binding {
	return r.bySignal[s]
}

// Binding returns the binding registered for a signal under a given name.
func (r *Registry) Binding(s signal.Signal, name string) (*handler.Binding, bool) {
	for _, b := range r.bySignal[s] {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Signals lists all signals with at least one binding.
func (r *Registry) Signals() []signal.Signal {
	out := make([]signal.Signal, 0, len(r.bySignal))
	for s := range r.bySignal {
		out = append(out, s)
	}
	return out
}
