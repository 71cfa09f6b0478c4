package state

import (
	"sync"
	"sync/atomic"
)

// ProjectionFactory instantiates a Projection over fixed sources.
type ProjectionFactory[P any] func() *Projection[P]

// Projection is a Cell-shaped view derived from one or more sources.
// Reads always recompute; writes fan back out to the sources.
type Projection[P any] struct {
	read      func() P
	write     func(P)
	sources   []Source
	updating  atomic.Bool
	listeners registry[P]
}

// NewProjection builds a projection over arbitrary sources.
// read must only depend on the sources; write should update them through
// their own Apply. Nil sources are ignored; at least one must remain.
func NewProjection[P any](read func() P, write func(P), sources ...Source) (*Projection[P], error) {
	kept := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			kept = append(kept, src)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoSources
	}
	return newProjection(read, write, kept), nil
}

func newProjection[P any](read func() P, write func(P), sources []Source) *Projection[P] {
	if read == nil {
		read = func() P {
			var zero P
			return zero
		}
	}
	return &Projection[P]{
		read:    read,
		write:   write,
		sources: sources,
	}
}

// Project1 prepares a projection of a single source.
func Project1[A, P any](a Readable[A], read func(A) P, write func(P)) ProjectionFactory[P] {
	return func() *Projection[P] {
		return newProjection(func() P {
			return read(a.Read())
		}, write, []Source{a})
	}
}

// Project2 prepares a projection of two sources.
func Project2[A, B, P any](a Readable[A], b Readable[B], read func(A, B) P, write func(P)) ProjectionFactory[P] {
	return func() *Projection[P] {
		return newProjection(func() P {
			return read(a.Read(), b.Read())
		}, write, []Source{a, b})
	}
}

// Project3 prepares a projection of three sources.
func Project3[A, B, C, P any](a Readable[A], b Readable[B], c Readable[C], read func(A, B, C) P, write func(P)) ProjectionFactory[P] {
	return func() *Projection[P] {
		return newProjection(func() P {
			return read(a.Read(), b.Read(), c.Read())
		}, write, []Source{a, b, c})
	}
}

// ProjectN prepares a projection over any number of same-typed sources.
// read receives the source states in source order.
func ProjectN[S, P any](sources []Readable[S], read func([]S) P, write func(P)) (ProjectionFactory[P], error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	held := append([]Readable[S](nil), sources...)
	erased := make([]Source, len(held))
	for i, src := range held {
		erased[i] = src
	}
	return func() *Projection[P] {
		return newProjection(func() P {
			states := make([]S, len(held))
			for i, src := range held {
				states[i] = src.Read()
			}
			return read(states)
		}, write, erased)
	}, nil
}

// Read recomputes the projected value from the current source states.
func (p *Projection[P]) Read() P {
	if p == nil {
		var zero P
		return zero
	}
	return p.read()
}

// Apply prepares a projected write. When the returned Effect runs, reducer
// receives a fresh Read, the result is written back to the sources, and
// projection listeners are notified once with it no matter how many sources
// the write touched.
func (p *Projection[P]) Apply(reducer func(P) P) Effect {
	return func() {
		if p == nil {
			return
		}
		next := p.Read()
		if reducer != nil {
			next = reducer(next)
		}
		p.writeBack(next)
		p.listeners.notify(next)
	}
}

// TryApply is Apply for reducers that can fail. A reducer error is returned
// before anything is written.
func (p *Projection[P]) TryApply(reducer func(P) (P, error)) func() error {
	return func() error {
		if p == nil {
			return nil
		}
		next := p.Read()
		if reducer != nil {
			var err error
			next, err = reducer(next)
			if err != nil {
				return err
			}
		}
		p.writeBack(next)
		p.listeners.notify(next)
		return nil
	}
}

// Set prepares a projected write of value.
func (p *Projection[P]) Set(value P) Effect {
	return p.Apply(func(P) P { return value })
}

// writeBack runs write with source relays muted. The guard is cleared on
// every exit path, including a panic in write.
func (p *Projection[P]) writeBack(next P) {
	p.updating.Store(true)
	defer p.updating.Store(false)
	if p.write != nil {
		p.write(next)
	}
}

// Subscribe prepares a listener registration. Activation registers fn with
// the projection and relays each source change to fn with a fresh Read,
// except while the projection is writing back to its own sources.
func (p *Projection[P]) Subscribe(fn Listener[P]) Subscription {
	if p == nil {
		return func() (Unsubscribe, error) { return noopUnsubscribe, nil }
	}
	return func() (Unsubscribe, error) {
		if fn == nil {
			return noopUnsubscribe, ErrInvalidListener
		}
		relay := func() {
			if p.updating.Load() {
				return
			}
			fn(p.Read())
		}

		unsubs := make([]Unsubscribe, 0, len(p.sources)+1)
		unsubs = append(unsubs, p.listeners.add(fn))
		for _, src := range p.sources {
			unsub, err := src.Watch(relay)()
			if err != nil {
				for _, u := range unsubs {
					u()
				}
				return noopUnsubscribe, err
			}
			unsubs = append(unsubs, unsub)
		}

		var once sync.Once
		return func() {
			once.Do(func() {
				for _, u := range unsubs {
					u()
				}
			})
		}, nil
	}
}

// Watch is Subscribe for callers that do not need the value.
func (p *Projection[P]) Watch(fn func()) Subscription {
	return p.Subscribe(watchListener[P](fn))
}

// Len reports the number of live registrations on the projection itself.
func (p *Projection[P]) Len() int {
	if p == nil {
		return 0
	}
	return p.listeners.len()
}
