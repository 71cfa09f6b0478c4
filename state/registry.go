package state

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrInvalidListener is returned when a subscription is activated with a nil listener.
	ErrInvalidListener = errors.New("invalid listener")
	// ErrNoSources is returned when a projection is built without any source.
	ErrNoSources = errors.New("projection requires at least one source")
)

// Listener receives the new state after every apply.
type Listener[T any] func(T)

// Unsubscribe removes exactly one registration. Calls after the first are no-ops.
type Unsubscribe func()

// Subscription activates a registration. Every call creates a new,
// independently removable entry, even for the same listener.
type Subscription func() (Unsubscribe, error)

// Must activates the subscription and panics if activation fails.
func (s Subscription) Must() Unsubscribe {
	unsub, err := s()
	if err != nil {
		panic(err)
	}
	return unsub
}

// Effect performs a prepared update when invoked.
type Effect func()

func noopUnsubscribe() {}

// entry is compared by pointer, so two registrations of one function stay distinct.
type entry[T any] struct {
	fn Listener[T]
}

// registry is an ordered listener list notified through snapshots.
type registry[T any] struct {
	mu      sync.Mutex
	entries []*entry[T]
}

func (r *registry[T]) subscribe(fn Listener[T]) Subscription {
	return func() (Unsubscribe, error) {
		if fn == nil {
			return noopUnsubscribe, ErrInvalidListener
		}
		return r.add(fn), nil
	}
}

func (r *registry[T]) add(fn Listener[T]) Unsubscribe {
	e := &entry[T]{fn: fn}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.remove(e)
		})
	}
}

func (r *registry[T]) remove(e *entry[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.entries, e); i >= 0 {
		r.entries = slices.Delete(r.entries, i, i+1)
	}
}

func (r *registry[T]) snapshot() []*entry[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return slices.Clone(r.entries)
}

// notify runs one pass over the entries registered when it starts.
// Listener panics are not recovered and abort the rest of the pass.
func (r *registry[T]) notify(value T) {
	for _, e := range r.snapshot() {
		e.fn(value)
	}
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func watchListener[T any](fn func()) Listener[T] {
	if fn == nil {
		return nil
	}
	return func(T) { fn() }
}
