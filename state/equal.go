package state

// EqualFunc compares two values for equality.
type EqualFunc[T any] func(a, b T) bool

// EqualComparable compares comparable values with ==.
func EqualComparable[T comparable](a, b T) bool {
	return a == b
}

// Identical compares values the way == compares interface values: pointers
// and channels by identity, scalars and structs by value. Slices, maps and
// funcs cannot be compared and are never identical.
func Identical[T any](a, b T) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return any(a) == any(b)
}
