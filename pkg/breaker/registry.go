package breaker

import "sync"

// Registry holds one breaker per external dependency. It is constructed
// explicitly and injected into whatever needs it; there is no package-level
// instance, so tests can run against isolated registries.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	opts     []Option
}

// NewRegistry creates a registry. The given options apply to every breaker
// the registry creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		opts:     opts,
	}
}

// Get returns the breaker for the named dependency, creating it on first
// use. Separate names get separate breakers, so one platform's outage does
// not block the others.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[name]
	if !ok {
		cb = New(name, r.opts...)
		r.breakers[name] = cb
	}
	return cb
}

// Names returns the names of all breakers created so far.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}
