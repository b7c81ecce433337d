// Package arena provides an append-only store that hands out typed indices.
//
// Indices are never reused or invalidated. The type parameter on Idx keeps an
// index into one arena from being passed where an index into another is expected.
package arena

import "fmt"

// Idx is an opaque index into an Arena[T].
type Idx[T any] struct {
	raw uint32
}

// Raw returns the underlying position. Intended for debugging and stable ordering.
func (i Idx[T]) Raw() uint32 {
	return i.raw
}

// String implements fmt.Stringer.
func (i Idx[T]) String() string {
	return fmt.Sprintf("#%d", i.raw)
}

// Arena stores values of type T and addresses them by Idx[T].
type Arena[T any] struct {
	data []T
}

// New creates an empty arena with room for capacity values.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{data: make([]T, 0, capacity)}
}

// Alloc appends value and returns its index.
func (a *Arena[T]) Alloc(value T) Idx[T] {
	a.data = append(a.data, value)
	return Idx[T]{raw: uint32(len(a.data) - 1)}
}

// Get returns a pointer to the value at idx. It panics if idx was not
// allocated by this arena.
func (a *Arena[T]) Get(idx Idx[T]) *T {
	if int(idx.raw) >= len(a.data) {
		panic(fmt.Sprintf("arena: index %s out of range (len %d)", idx, len(a.data)))
	}
	return &a.data[idx.raw]
}

// Lookup is like Get but reports whether idx is in range instead of panicking.
func (a *Arena[T]) Lookup(idx Idx[T]) (*T, bool) {
	if int(idx.raw) >= len(a.data) {
		return nil, false
	}
	return &a.data[idx.raw], true
}

// Len returns the number of allocated values.
func (a *Arena[T]) Len() int {
	return len(a.data)
}

// Indices returns every allocated index in allocation order.
func (a *Arena[T]) Indices() []Idx[T] {
	out := make([]Idx[T], len(a.data))
	for i := range a.data {
		out[i] = Idx[T]{raw: uint32(i)}
	}
	return out
}

// Each calls fn for every value in allocation order until fn returns false.
func (a *Arena[T]) Each(fn func(Idx[T], *T) bool) {
	for i := range a.data {
		if !fn(Idx[T]{raw: uint32(i)}, &a.data[i]) {
			return
		}
	}
}
