package vcnl4040

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// DefaultFilterSize is the sample window used when a session does not
// specify one.
const DefaultFilterSize = 9

// Filter is a fixed-capacity ring of the most recent readings with median
// extraction. It never shrinks; the oldest reading is overwritten first.
type Filter[T constraints.Integer] struct {
	data []T
	pos  int
	full bool
}

// NewFilter creates a Filter holding up to capacity readings.
// capacity <= 0 falls back to DefaultFilterSize.
func NewFilter[T constraints.Integer](capacity int) *Filter[T] {
	if capacity <= 0 {
		capacity = DefaultFilterSize
	}
	return &Filter[T]{data: make([]T, capacity)}
}

// Insert appends a reading, dropping the oldest when at capacity.
func (f *Filter[T]) Insert(v T) {
	f.data[f.pos] = v
	f.pos++
	if f.pos >= len(f.data) {
		f.pos = 0
		f.full = true
	}
}

// Len returns the number of readings currently held.
func (f *Filter[T]) Len() int {
	if f.full {
		return len(f.data)
	}
	return f.pos
}

// Median returns the sorted element at index Len()/2. ok is false while the
// filter is empty.
func (f *Filter[T]) Median() (v T, ok bool) {
	n := f.Len()
	if n == 0 {
		return v, false
	}
	held := make([]T, n)
	if f.full {
		copy(held, f.data[f.pos:])
		copy(held[len(f.data)-f.pos:], f.data[:f.pos])
	} else {
		copy(held, f.data[:f.pos])
	}
	slices.Sort(held)
	return held[n/2], true
}
