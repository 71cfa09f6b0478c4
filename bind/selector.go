// Package bind connects observable state to UI components.
//
// A Selector reads a derived value from a state.Readable, subscribes while
// mounted, and requests a re-render only when the derived value changes
// according to its equality function.
package bind

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/odvcencio/furry-state/state"
)

var (
	// ErrInvalidSelector is returned when Select receives a nil selector.
	ErrInvalidSelector = errors.New("invalid selector")
	// ErrNilSource is returned when Select receives a nil source.
	ErrNilSource = errors.New("nil source")
)

// SelectorError reports a panic recovered from a selector or equality function.
type SelectorError struct {
	Value any
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector panicked: %v", e.Value)
}

// Unwrap returns the panic value when it was an error.
func (e *SelectorError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Option configures a Selector.
type Option[V any] func(*options[V])

type options[V any] struct {
	equals    state.EqualFunc[V]
	scheduler state.Scheduler
	onChange  func()
	logger    zerolog.Logger
}

// WithEquals sets the comparison deciding whether a new selection is a change.
// The default is state.Identical.
func WithEquals[V any](fn state.EqualFunc[V]) Option[V] {
	return func(o *options[V]) {
		if fn != nil {
			o.equals = fn
		}
	}
}

// WithScheduler defers re-render requests through scheduler.
func WithScheduler[V any](scheduler state.Scheduler) Option[V] {
	return func(o *options[V]) {
		o.scheduler = scheduler
	}
}

// WithOnChange sets the re-render hook.
func WithOnChange[V any](fn func()) Option[V] {
	return func(o *options[V]) {
		o.onChange = fn
	}
}

// WithLogger sets the logger used for recovered selector failures.
func WithLogger[V any](logger zerolog.Logger) Option[V] {
	return func(o *options[V]) {
		o.logger = logger
	}
}

// Selector is a mount-scoped subscription to a derived value.
type Selector[S, V any] struct {
	src      state.Readable[S]
	selector func(S) V

	mu      sync.Mutex
	opts    options[V]
	value   V
	err     error
	unsub   state.Unsubscribe
	mounted bool
	renders int
}

// Select creates a Selector over src. The selection is computed immediately
// so Value is usable before Mount.
func Select[S, V any](src state.Readable[S], selector func(S) V, opts ...Option[V]) (*Selector[S, V], error) {
	if selector == nil {
		return nil, ErrInvalidSelector
	}
	if src == nil {
		return nil, ErrNilSource
	}
	s := &Selector[S, V]{
		src:      src,
		selector: selector,
		opts: options[V]{
			equals: state.Identical[V],
			logger: zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s.opts)
		}
	}
	s.value, s.err = s.compute(src.Read())
	return s, nil
}

// SetScheduler replaces the scheduler used for re-render requests.
func (s *Selector[S, V]) SetScheduler(scheduler state.Scheduler) {
	s.mu.Lock()
	s.opts.scheduler = scheduler
	s.mu.Unlock()
}

// SetOnChange replaces the re-render hook.
func (s *Selector[S, V]) SetOnChange(fn func()) {
	s.mu.Lock()
	s.opts.onChange = fn
	s.mu.Unlock()
}

// Value returns the last selection, or the failure recorded while computing it.
func (s *Selector[S, V]) Value() (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.err
}

// Renders reports how many re-renders the selector has requested.
func (s *Selector[S, V]) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// Mounted reports whether the selector is subscribed.
func (s *Selector[S, V]) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Mount reads the source, subscribes before returning, and reconciles once
// if the source changed between the read and the subscription.
func (s *Selector[S, V]) Mount() {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.mu.Unlock()

	seen := s.src.Read()
	value, err := s.compute(seen)
	s.mu.Lock()
	s.value, s.err = value, err
	s.mu.Unlock()

	unsub, err := s.src.Subscribe(s.onState)()
	if err != nil {
		s.opts.logger.Error().Err(err).Msg("selector subscribe failed")
		s.mu.Lock()
		s.mounted = false
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	if current := s.src.Read(); !state.Identical(seen, current) {
		s.onState(current)
	}
}

// Unmount drops the subscription. It is safe to call when not mounted.
func (s *Selector[S, V]) Unmount() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mounted = false
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Selector[S, V]) onState(current S) {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	prev, prevErr := s.value, s.err
	equals := s.opts.equals
	s.mu.Unlock()

	next, err := s.compute(current)
	if err != nil {
		next = prev
	}
	changed := err != nil || prevErr != nil
	if !changed {
		changed, err = s.changed(equals, prev, next)
	}
	if !changed {
		return
	}
	if err != nil {
		s.opts.logger.Warn().Err(err).Msg("selector failed")
	}

	s.mu.Lock()
	s.value, s.err = next, err
	s.mu.Unlock()
	s.render()
}

func (s *Selector[S, V]) compute(current S) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SelectorError{Value: r}
		}
	}()
	return s.selector(current), nil
}

func (s *Selector[S, V]) changed(equals state.EqualFunc[V], prev, next V) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			changed, err = true, &SelectorError{Value: r}
		}
	}()
	return !equals(prev, next), nil
}

func (s *Selector[S, V]) render() {
	s.mu.Lock()
	s.renders++
	onChange := s.opts.onChange
	scheduler := s.opts.scheduler
	s.mu.Unlock()
	if onChange == nil {
		return
	}
	state.Deferred(scheduler, onChange)()
}
