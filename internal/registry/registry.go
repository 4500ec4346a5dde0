package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Capability identifies an abstract service role, e.g. "log-manager".
type Capability string

// Factory constructs the instance for a lazy binding. It may resolve other
// capabilities through r.
type Factory func(r *Registry) (any, error)

// Persistable marks services whose state belongs in a session file. RecordKind
// is the discriminator the service is written under.
type Persistable interface {
	RecordKind() string
}

var (
	// ErrNotRegistered indicates a lookup for a capability with no binding.
	ErrNotRegistered = errors.New("registry: capability not registered")
	// ErrCycle indicates a factory that (transitively) requested its own capability.
	ErrCycle = errors.New("registry: dependency cycle")
	// ErrWrongType indicates a bound instance that does not satisfy the requested type.
	ErrWrongType = errors.New("registry: instance has unexpected type")
)

type binding struct {
	instance  any
	factory   Factory
	singleton bool
	built     bool
}

// Binding is a resolved capability/instance pair.
type Binding struct {
	Capability Capability
	Instance   any
}

// Registry maps capabilities to instances or lazy factories. It is the
// explicit context object a session owns; a new session gets a new Registry.
//
// The mutex is never held while a factory runs, so factories may call Get.
// Lazy construction assumes a single owning goroutine: a second goroutine
// asking for a capability that is mid-construction sees ErrCycle.
type Registry struct {
	mu       sync.Mutex
	bindings map[Capability]*binding
	building map[Capability]bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		bindings: make(map[Capability]*binding),
		building: make(map[Capability]bool),
	}
}

// Register binds instance to c, replacing any previous binding.
func (r *Registry) Register(c Capability, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[c] = &binding{instance: instance, built: true, singleton: true}
}

// RegisterFactory binds a lazily constructed instance to c, replacing any
// previous binding. Singleton bindings cache the first constructed instance;
// other bindings construct a new instance on every Get.
func (r *Registry) RegisterFactory(c Capability, f Factory, singleton bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[c] = &binding{factory: f, singleton: singleton}
}

// IsRegistered reports whether c has a binding.
func (r *Registry) IsRegistered(c Capability) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[c]
	return ok
}

// Get returns the instance bound to c, constructing it if the binding is lazy.
func (r *Registry) Get(c Capability) (any, error) {
	r.mu.Lock()
	b, ok := r.bindings[c]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, c)
	}
	if b.built {
		instance := b.instance
		r.mu.Unlock()
		return instance, nil
	}
	if r.building[c] {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCycle, c)
	}
	r.building[c] = true
	factory := b.factory
	r.mu.Unlock()

	instance, err := factory(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.building, c)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", c, err)
	}
	// Cache only if the binding was not replaced while the factory ran.
	if b.singleton && r.bindings[c] == b {
		b.instance = instance
		b.built = true
	}
	return instance, nil
}

// Resolve returns the instance bound to c as a T.
func Resolve[T any](r *Registry, c Capability) (T, error) {
	var zero T
	v, err := r.Get(c)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrWrongType, c, v)
	}
	return typed, nil
}

// Capabilities returns every bound capability in lexicographic order.
func (r *Registry) Capabilities() []Capability {
	r.mu.Lock()
	caps := make([]Capability, 0, len(r.bindings))
	for c := range r.bindings {
		caps = append(caps, c)
	}
	r.mu.Unlock()

	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// AllPersistable returns the bound instances implementing Persistable, ordered
// by capability. Pending singleton bindings are constructed first; transient
// factory bindings are skipped since they hold no session state.
func (r *Registry) AllPersistable() ([]Binding, error) {
	var out []Binding
	for _, c := range r.Capabilities() {
		r.mu.Lock()
		b, ok := r.bindings[c]
		transient := ok && !b.built && !b.singleton
		r.mu.Unlock()
		if !ok || transient {
			continue
		}
		instance, err := r.Get(c)
		if err != nil {
			return nil, err
		}
		if _, ok := instance.(Persistable); ok {
			out = append(out, Binding{Capability: c, Instance: instance})
		}
	}
	return out, nil
}
