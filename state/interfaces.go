package state

// Source emits change notifications without exposing its value type.
// Projections relay through Source so they can mix cells of different types.
type Source interface {
	Watch(fn func()) Subscription
}

// Readable exposes read-only observable state.
type Readable[T any] interface {
	Source
	Read() T
	Subscribe(fn Listener[T]) Subscription
}

// Writable exposes read/write observable state.
type Writable[T any] interface {
	Readable[T]
	Apply(reducer func(T) T) Effect
	TryApply(reducer func(T) (T, error)) func() error
	Set(value T) Effect
}

var (
	_ Writable[int] = (*Cell[int])(nil)
	_ Writable[int] = (*Projection[int])(nil)
)
