// Package inspect forwards applied updates to an external inspector.
//
// Wrap decorates a state.Writable so that every completed Apply is reported
// to a Sink with the action name and the resulting state. The wrapper keeps
// Apply's contract: the returned effect still runs only when invoked, and
// listeners have been notified by the time the sink sees the entry.
package inspect

import (
	"io"
	"reflect"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/furry-state/state"
)

// Entry is one applied update.
type Entry struct {
	ID     ulid.ULID
	Store  string
	Action string
	State  any
	At     time.Time
}

// Sink receives inspection events.
type Sink interface {
	// Init announces a store and its state at wrap time.
	Init(store string, state any)
	// Send reports an applied update.
	Send(entry Entry)
}

type nopSink struct{}

func (nopSink) Init(string, any) {}
func (nopSink) Send(Entry)       {}

// Nop discards everything.
var Nop Sink = nopSink{}

// SinkFrom returns v when it can act as a Sink and Nop otherwise.
// Hosts pass whatever inspector handle they have; absence is not an error.
func SinkFrom(v any) Sink {
	if v == nil {
		return Nop
	}
	if s, ok := v.(Sink); ok {
		return s
	}
	return Nop
}

// Multi fans events out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	kept := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return kept
}

type multiSink []Sink

func (m multiSink) Init(store string, state any) {
	for _, s := range m {
		s.Init(store, state)
	}
}

func (m multiSink) Send(entry Entry) {
	for _, s := range m {
		s.Send(entry)
	}
}

// Config configures a wrapped store.
type Config struct {
	// Name identifies the store in entries. Defaults to "store".
	Name string
	// Sink receives entries. Nil discards them.
	Sink Sink
	// Clock stamps entries. Defaults to time.Now.
	Clock func() time.Time
	// Entropy feeds entry IDs. Defaults to ulid.DefaultEntropy.
	Entropy io.Reader
}

// Store wraps a state.Writable and reports every applied update.
type Store[S any] struct {
	target state.Writable[S]
	name   string
	sink   Sink
	clock  func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

var _ state.Writable[int] = (*Store[int])(nil)

// Wrap decorates target and announces its current state to the sink.
func Wrap[S any](target state.Writable[S], cfg Config) *Store[S] {
	s := &Store[S]{
		target:  target,
		name:    cfg.Name,
		sink:    SinkFrom(cfg.Sink),
		clock:   cfg.Clock,
		entropy: cfg.Entropy,
	}
	if s.name == "" {
		s.name = "store"
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.entropy == nil {
		s.entropy = ulid.DefaultEntropy()
	}
	s.sink.Init(s.name, target.Read())
	return s
}

// Name returns the store name used in entries.
func (s *Store[S]) Name() string {
	return s.name
}

// Read returns the wrapped state.
func (s *Store[S]) Read() S {
	return s.target.Read()
}

// Subscribe passes through to the wrapped store.
func (s *Store[S]) Subscribe(fn state.Listener[S]) state.Subscription {
	return s.target.Subscribe(fn)
}

// Watch passes through to the wrapped store.
func (s *Store[S]) Watch(fn func()) state.Subscription {
	return s.target.Watch(fn)
}

// Apply prepares an update reported under the reducer's function name.
func (s *Store[S]) Apply(reducer func(S) S) state.Effect {
	return s.ApplyNamed(ActionName(reducer), reducer)
}

// ApplyNamed prepares an update reported under name. The entry is sent after
// the wrapped effect returns; a panicking reducer or listener sends nothing.
func (s *Store[S]) ApplyNamed(name string, reducer func(S) S) state.Effect {
	inner := s.target.Apply(reducer)
	return func() {
		inner()
		s.send(name)
	}
}

// TryApply prepares a fallible update. Failed reducers send nothing.
func (s *Store[S]) TryApply(reducer func(S) (S, error)) func() error {
	name := ActionName(reducer)
	inner := s.target.TryApply(reducer)
	return func() error {
		if err := inner(); err != nil {
			return err
		}
		s.send(name)
		return nil
	}
}

// Set prepares a replacement reported as "set".
func (s *Store[S]) Set(value S) state.Effect {
	return s.ApplyNamed("set", func(S) S { return value })
}

func (s *Store[S]) send(action string) {
	at := s.clock()
	s.sink.Send(Entry{
		ID:     s.newID(at),
		Store:  s.name,
		Action: action,
		State:  s.target.Read(),
		At:     at,
	})
}

func (s *Store[S]) newID(at time.Time) ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(at), s.entropy)
	if err != nil {
		return ulid.ULID{}
	}
	return id
}

// ActionName derives a readable name from a function value:
// "counter.increment" for package funcs, "counter.Run.func1" for closures.
func ActionName(fn any) string {
	if fn == nil {
		return "anonymous"
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	f := goruntime.FuncForPC(v.Pointer())
	if f == nil {
		return "anonymous"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
