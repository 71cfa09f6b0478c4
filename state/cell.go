// Package state provides a minimal observable state container.
//
// A Cell holds one immutable value that is replaced wholesale by reducers
// and watched by listeners. A Projection composes several sources into one
// read/write view. Updates and subscriptions are two-phase: Apply and
// Subscribe return a function that performs the effect when called.
//
// Every notification pass walks a snapshot of the listeners taken when the
// pass starts. Listeners may apply, subscribe, or unsubscribe while they run;
// a nested apply finishes its own pass before the outer pass continues.
package state

import "sync"

// Factory instantiates a Cell. Each call produces an independent Cell.
type Factory[S any] func() *Cell[S]

// Cell holds a value and notifies listeners on every apply.
type Cell[S any] struct {
	mu        sync.Mutex
	state     S
	listeners registry[S]
}

// Create prepares a Cell blueprint. init runs once per factory call, not here.
// A nil init yields the zero value.
func Create[S any](init func() S) Factory[S] {
	return func() *Cell[S] {
		var initial S
		if init != nil {
			initial = init()
		}
		return &Cell[S]{state: initial}
	}
}

// NewCell creates a Cell holding initial.
func NewCell[S any](initial S) *Cell[S] {
	return &Cell[S]{state: initial}
}

// Read returns the current state. No copy is made.
func (c *Cell[S]) Read() S {
	if c == nil {
		var zero S
		return zero
	}
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	return state
}

// Apply prepares an update. When the returned Effect runs, reducer is called
// with the current state, its result replaces the state, and every listener
// registered at that moment is called with it in registration order.
//
// If reducer panics the state is left unchanged and no listener runs.
// A nil reducer keeps the current value and still notifies.
func (c *Cell[S]) Apply(reducer func(S) S) Effect {
	return func() {
		if c == nil {
			return
		}
		next := c.Read()
		if reducer != nil {
			next = reducer(next)
		}
		c.commit(next)
	}
}

// TryApply is Apply for reducers that can fail. A reducer error is returned
// unchanged; the state stays as it was and no listener runs.
func (c *Cell[S]) TryApply(reducer func(S) (S, error)) func() error {
	return func() error {
		if c == nil {
			return nil
		}
		next := c.Read()
		if reducer != nil {
			var err error
			next, err = reducer(next)
			if err != nil {
				return err
			}
		}
		c.commit(next)
		return nil
	}
}

// Set prepares an update that replaces the state with value.
func (c *Cell[S]) Set(value S) Effect {
	return c.Apply(func(S) S { return value })
}

// Subscribe prepares a listener registration. Activating the returned
// Subscription fails with ErrInvalidListener when fn is nil.
func (c *Cell[S]) Subscribe(fn Listener[S]) Subscription {
	if c == nil {
		return func() (Unsubscribe, error) { return noopUnsubscribe, nil }
	}
	return c.listeners.subscribe(fn)
}

// Watch is Subscribe for callers that do not need the value.
func (c *Cell[S]) Watch(fn func()) Subscription {
	return c.Subscribe(watchListener[S](fn))
}

// Len reports the number of live registrations.
func (c *Cell[S]) Len() int {
	if c == nil {
		return 0
	}
	return c.listeners.len()
}

func (c *Cell[S]) commit(next S) {
	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	c.listeners.notify(next)
}
