package services

import "sync"

// Notifier is implemented by services that announce changes.
type Notifier interface {
	// Subscribe registers fn for change notifications and returns a function
	// that removes it.
	Subscribe(fn func()) (unsubscribe func())
}

// Observable implements Notifier. Embed it by value; it carries no
// serialized state.
type Observable struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func()
}

// Subscribe implements Notifier.
func (o *Observable) Subscribe(fn func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listeners == nil {
		o.listeners = make(map[int]func())
	}
	id := o.next
	o.next++
	o.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (o *Observable) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}

// Notify calls every listener synchronously.
func (o *Observable) Notify() {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
