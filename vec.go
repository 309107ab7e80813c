package collections

import (
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	"github.com/homier/collections/alloc"
)

const minNonZeroCapacity = 4

// Vec is a growable contiguous array backed by a buffer obtained from an
// alloc.Allocator. Slots [0, Len()) hold live elements, slots [Len(), Cap())
// are allocated and hold zero values.
//
// The zero value is an empty Vec that allocates from the Go heap on first
// growth. A Vec must not be copied after first use and is not safe for
// concurrent use.
type Vec[T any] struct {
	buf   []T
	len   int
	alloc alloc.Allocator[T]
}

type VecOption[T any] func(v *Vec[T])

// Override the allocator the backing buffer comes from.
func WithAllocator[T any](a alloc.Allocator[T]) VecOption[T] {
	return func(v *Vec[T]) {
		v.alloc = a
	}
}

// Returns a new Vec with room for exactly `capacity` elements.
// A capacity of 0 performs no allocation.
func NewVec[T any](capacity int, opts ...VecOption[T]) *Vec[T] {
	if capacity < 0 {
		panic(errors.Wrapf(ErrCapacityOverflow, "negative capacity %d", capacity))
	}

	var v Vec[T]
	for _, opt := range opts {
		opt(&v)
	}

	if capacity > 0 {
		v.buf = allocate(v.allocator(), capacity)
	}

	return &v
}

// newSlots returns a Vec whose length is already `n`, every slot holding
// the zero value. Used for buffers that track slot liveness elsewhere.
func newSlots[T any](n int, a alloc.Allocator[T]) Vec[T] {
	v := Vec[T]{alloc: a}
	v.buf = allocate(v.allocator(), n)
	clear(v.buf)
	v.setLen(n)

	return v
}

// Returns the number of live elements.
func (v *Vec[T]) Len() int {
	return v.len
}

// Returns the number of allocated slots.
func (v *Vec[T]) Cap() int {
	return len(v.buf)
}

// Returns true if the Vec holds no elements.
func (v *Vec[T]) IsEmpty() bool {
	return v.len == 0
}

// Returns the element at index `i`, or false if `i` is out of range.
func (v *Vec[T]) Get(i int) (T, bool) {
	if i < 0 || i >= v.len {
		var zero T
		return zero, false
	}

	return v.buf[i], true
}

// Returns a pointer to the element at index `i`, or nil if `i` is out of
// range. The pointer is invalidated by any operation that grows the Vec.
func (v *Vec[T]) GetMut(i int) *T {
	if i < 0 || i >= v.len {
		return nil
	}

	return &v.buf[i]
}

// At is Get for callers that have already checked the bounds.
func (v *Vec[T]) At(i int) T {
	if i < 0 || i >= v.len {
		panicIndex("at", i, v.len)
	}

	return v.buf[i]
}

// Set overwrites the element at index `i`, releasing the old one.
func (v *Vec[T]) Set(i int, value T) {
	if i < 0 || i >= v.len {
		panicIndex("set", i, v.len)
	}

	release(&v.buf[i])
	v.buf[i] = value
}

// Slice returns a view of the live elements. The view shares storage with
// the Vec and is invalidated by any operation that grows it.
func (v *Vec[T]) Slice() []T {
	return v.buf[:v.len:v.len]
}

// Push appends value, growing the buffer when it's full.
func (v *Vec[T]) Push(value T) {
	if v.len == len(v.buf) {
		v.grow(0)
	}

	v.buf[v.len] = value
	v.len++
}

// Pop removes the last element and hands it to the caller.
func (v *Vec[T]) Pop() (T, bool) {
	var zero T
	if v.len == 0 {
		return zero, false
	}

	v.len--
	value := v.buf[v.len]
	v.buf[v.len] = zero

	return value, true
}

// Insert places `value` at index `i`, shifting the tail right.
// Panics if i > Len().
func (v *Vec[T]) Insert(i int, value T) {
	if i < 0 || i > v.len {
		panicIndex("insert", i, v.len)
	}

	if v.len == len(v.buf) {
		v.grow(0)
	}

	copy(v.buf[i+1:v.len+1], v.buf[i:v.len])
	v.buf[i] = value
	v.len++
}

// Remove takes the element at index `i` out, shifting the tail left.
// Panics if i >= Len().
func (v *Vec[T]) Remove(i int) T {
	if i < 0 || i >= v.len {
		panicIndex("remove", i, v.len)
	}

	value := v.buf[i]
	copy(v.buf[i:v.len-1], v.buf[i+1:v.len])
	v.len--

	var zero T
	v.buf[v.len] = zero

	return value
}

// Fill overwrites every live element with `value`, releasing the old ones.
func (v *Vec[T]) Fill(value T) {
	for i := range v.len {
		release(&v.buf[i])
		v.buf[i] = value
	}
}

// Truncate releases elements in [n, Len()) and shortens the Vec to `n`.
// Does nothing if n >= Len(). Capacity is kept.
func (v *Vec[T]) Truncate(n int) {
	if n < 0 {
		panicIndex("truncate", n, v.len)
	}

	if n >= v.len {
		return
	}

	old := v.len
	v.len = n
	releaseAll(v.buf[n:old])
}

// Clear releases every element, keeping the capacity.
func (v *Vec[T]) Clear() {
	v.Truncate(0)
}

// Reserve makes room for at least `additional` more elements, growing at
// most once.
func (v *Vec[T]) Reserve(additional int) {
	if additional < 0 {
		panic(errors.Wrapf(ErrCapacityOverflow, "negative reserve %d", additional))
	}

	needed := checkedAdd(v.len, additional)
	if needed > len(v.buf) {
		v.grow(needed)
	}
}

// Extend appends every item of seq. `sizeHint` is the caller's best guess
// of how many items seq yields and is reserved up front; items beyond the
// hint are appended one by one.
func (v *Vec[T]) Extend(seq iter.Seq[T], sizeHint int) {
	if sizeHint > 0 {
		v.Reserve(sizeHint)
	}

	for item := range seq {
		v.Push(item)
	}
}

// AppendSlice appends items in order, reserving room for all of them first.
func (v *Vec[T]) AppendSlice(items ...T) {
	v.Extend(slices.Values(items), len(items))
}

// All iterates over index/element pairs. The Vec must not be modified
// during iteration.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.len; i++ {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// AllMut iterates over index/pointer pairs, allowing elements to be
// modified in place.
func (v *Vec[T]) AllMut() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < v.len; i++ {
			if !yield(i, &v.buf[i]) {
				return
			}
		}
	}
}

// Values iterates over the elements in order.
func (v *Vec[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < v.len; i++ {
			if !yield(v.buf[i]) {
				return
			}
		}
	}
}

// Drain returns a single-use sequence that moves every element out of the
// Vec. The Vec gives up its buffer when iteration starts and is left empty
// with no capacity. When iteration stops, early or not, elements that were
// not yielded are released and the buffer is deallocated.
func (v *Vec[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		buf, n, a := v.buf, v.len, v.allocator()
		v.buf, v.len = nil, 0

		i := 0
		defer func() {
			releaseAll(buf[i:n])
			deallocate(a, buf)
		}()

		var zero T
		for i < n {
			item := buf[i]
			buf[i] = zero
			i++

			if !yield(item) {
				return
			}
		}
	}
}

// Release releases every element and deallocates the buffer. The Vec is
// left empty and may be reused.
func (v *Vec[T]) Release() {
	if v == nil {
		return
	}

	v.Clear()
	v.free()
}

// free deallocates the buffer without releasing elements.
func (v *Vec[T]) free() {
	deallocate(v.allocator(), v.buf)
	v.buf = nil
	v.len = 0
}

// setLen forces the length. The caller guarantees n <= Cap() and that
// every slot below n holds a valid element.
func (v *Vec[T]) setLen(n int) {
	if n < 0 || n > len(v.buf) {
		panic(errors.AssertionFailedf("setLen(%d) with capacity %d", n, len(v.buf)))
	}

	v.len = n
}

func (v *Vec[T]) allocator() alloc.Allocator[T] {
	if v.alloc == nil {
		v.alloc = alloc.Heap[T]{}
	}

	return v.alloc
}

// grow reallocates to max(Cap()*2, minimum), or max(4, minimum) when
// nothing is allocated yet.
func (v *Vec[T]) grow(minimum int) {
	var newCap int
	if len(v.buf) == 0 {
		newCap = max(minNonZeroCapacity, minimum)
	} else {
		newCap = max(checkedDouble(len(v.buf)), minimum)
	}

	a := v.allocator()
	buf := allocate(a, newCap)
	copy(buf, v.buf[:v.len])
	deallocate(a, v.buf)

	v.buf = buf
}

// Plain element types carry no ownership, so a bitwise copy of a Vec of
// them is a valid independent Vec.
type Plain interface {
	constraints.Integer | constraints.Float | constraints.Complex | ~bool | ~string
}

// Clone returns a copy of v with the same capacity and allocator.
func Clone[T Plain](v *Vec[T]) *Vec[T] {
	c := &Vec[T]{alloc: v.alloc}
	if len(v.buf) > 0 {
		c.buf = allocate(c.allocator(), len(v.buf))
	}

	copy(c.buf, v.buf[:v.len])
	c.len = v.len

	return c
}

func allocate[T any](a alloc.Allocator[T], count int) []T {
	buf, err := a.Allocate(count)
	if err != nil {
		panic(errors.Mark(errors.Wrapf(err, "allocate %d elements", count), ErrAllocFailed))
	}

	if len(buf) != count {
		panic(errors.AssertionFailedf("allocator returned %d elements, want %d", len(buf), count))
	}

	return buf
}

func deallocate[T any](a alloc.Allocator[T], buf []T) {
	if len(buf) == 0 {
		return
	}

	a.Deallocate(buf)
}
