package model

// Optional holds a value that may be absent. Consumers must go through Get or
// OrElse, so absence is always handled explicitly.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}

// OrElse returns the held value or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}
