package alloc

import "github.com/cockroachdb/errors"

type limited[T any] struct {
	upstream Allocator[T]
	budget   int
	live     int
}

// Limit wraps upstream with a budget of live elements. An allocation that
// would push the live element count past maxElements fails with
// ErrBudgetExceeded. Not safe for concurrent use.
func Limit[T any](upstream Allocator[T], maxElements int) Allocator[T] {
	return &limited[T]{
		upstream: OrHeap(upstream),
		budget:   maxElements,
	}
}

func (a *limited[T]) Allocate(count int) ([]T, error) {
	if count <= 0 {
		return nil, nil
	}

	if a.live+count > a.budget {
		return nil, errors.Wrapf(ErrBudgetExceeded, "%d live + %d requested > %d", a.live, count, a.budget)
	}

	buf, err := a.upstream.Allocate(count)
	if err != nil {
		return nil, err
	}

	a.live += len(buf)

	return buf, nil
}

func (a *limited[T]) Deallocate(buf []T) {
	a.live -= len(buf)
	a.upstream.Deallocate(buf)
}
