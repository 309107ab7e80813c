// Package alloc is the allocation boundary the containers are built on.
//
// An Allocator hands out buffers of exactly the requested element count and
// takes them back with the same count. Containers never grow a buffer in
// place; they allocate a new one, copy, and give the old one back.
package alloc

import "github.com/cockroachdb/errors"

var (
	ErrForeignBuffer  = errors.New("alloc: buffer was not allocated here or was already freed")
	ErrCountMismatch  = errors.New("alloc: deallocation count does not match allocation")
	ErrBudgetExceeded = errors.New("alloc: element budget exceeded")
)

type Allocator[T any] interface {
	// Allocate returns a buffer with len == cap == count.
	// It returns nil, nil when count is 0.
	Allocate(count int) ([]T, error)

	// Deallocate gives back a buffer previously returned by Allocate.
	// The buffer must be passed with its original length.
	Deallocate(buf []T)
}

// Heap allocates from the Go heap.
type Heap[T any] struct{}

var _ Allocator[int] = Heap[int]{}

func (Heap[T]) Allocate(count int) ([]T, error) {
	if count <= 0 {
		return nil, nil
	}

	return make([]T, count), nil
}

// Deallocate zeroes the buffer so nothing it referenced stays reachable
// through a stale slice header.
func (Heap[T]) Deallocate(buf []T) {
	clear(buf)
}

// OrHeap returns a when it's set, the heap allocator otherwise.
func OrHeap[T any](a Allocator[T]) Allocator[T] {
	if a == nil {
		return Heap[T]{}
	}

	return a
}
