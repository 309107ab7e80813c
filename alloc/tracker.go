package alloc

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Tracker keeps a record of every live buffer handed out through Track.
// One Tracker may be shared by allocators of different element types.
type Tracker struct {
	logger *zap.Logger

	mu   sync.Mutex
	live map[unsafe.Pointer]liveBuffer
	// zero-sized element types share a single base address, so they are
	// counted per (type size 0, count) instead of per pointer.
	zeroSized map[int]int

	allocs    atomic.Int64
	frees     atomic.Int64
	liveBytes atomic.Int64
}

type liveBuffer struct {
	count int
	size  uintptr
}

type TrackerOption func(t *Tracker)

func WithLogger(logger *zap.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		logger:    zap.NewNop(),
		live:      make(map[unsafe.Pointer]liveBuffer),
		zeroSized: make(map[int]int),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Allocs is the number of successful non-empty allocations.
func (t *Tracker) Allocs() int { return int(t.allocs.Load()) }

// Frees is the number of successful deallocations.
func (t *Tracker) Frees() int { return int(t.frees.Load()) }

// LiveBytes is the byte size of all buffers not yet deallocated.
func (t *Tracker) LiveBytes() int { return int(t.liveBytes.Load()) }

// LiveBuffers is the number of buffers not yet deallocated.
func (t *Tracker) LiveBuffers() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.live)
	for _, c := range t.zeroSized {
		n += c
	}

	return n
}

func (t *Tracker) record(ptr unsafe.Pointer, count int, size uintptr) {
	t.mu.Lock()
	if size == 0 {
		t.zeroSized[count]++
	} else {
		t.live[ptr] = liveBuffer{count: count, size: size}
	}
	t.mu.Unlock()

	t.allocs.Add(1)
	t.liveBytes.Add(int64(uintptr(count) * size))

	t.logger.Debug("allocate",
		zap.Int("count", count),
		zap.Uintptr("elem size", size),
		zap.Uintptr("addr", uintptr(ptr)),
	)
}

func (t *Tracker) forget(ptr unsafe.Pointer, count int, size uintptr) {
	t.mu.Lock()
	if size == 0 {
		if t.zeroSized[count] == 0 {
			t.mu.Unlock()
			t.fail(ErrForeignBuffer, ptr, count, 0)
		}

		t.zeroSized[count]--
		if t.zeroSized[count] == 0 {
			delete(t.zeroSized, count)
		}
	} else {
		lb, ok := t.live[ptr]
		if !ok {
			t.mu.Unlock()
			t.fail(ErrForeignBuffer, ptr, count, 0)
		}
		if lb.count != count {
			t.mu.Unlock()
			t.fail(ErrCountMismatch, ptr, count, lb.count)
		}

		delete(t.live, ptr)
	}
	t.mu.Unlock()

	t.frees.Add(1)
	t.liveBytes.Add(-int64(uintptr(count) * size))

	t.logger.Debug("deallocate",
		zap.Int("count", count),
		zap.Uintptr("elem size", size),
		zap.Uintptr("addr", uintptr(ptr)),
	)
}

func (t *Tracker) fail(cause error, ptr unsafe.Pointer, count, want int) {
	t.logger.Error("bad deallocation",
		zap.Error(cause),
		zap.Int("count", count),
		zap.Int("allocated count", want),
		zap.Uintptr("addr", uintptr(ptr)),
	)

	panic(errors.Wrapf(cause, "deallocate %d elements at %#x", count, uintptr(ptr)))
}

type tracked[T any] struct {
	upstream Allocator[T]
	tracker  *Tracker
}

// Track wraps upstream so that every buffer it hands out is recorded in
// tracker. Deallocating a foreign buffer, a buffer twice, or with a
// different count panics.
func Track[T any](upstream Allocator[T], tracker *Tracker) Allocator[T] {
	return &tracked[T]{
		upstream: OrHeap(upstream),
		tracker:  tracker,
	}
}

func (a *tracked[T]) Allocate(count int) ([]T, error) {
	buf, err := a.upstream.Allocate(count)
	if err != nil || len(buf) == 0 {
		return buf, err
	}

	var zero T
	a.tracker.record(unsafe.Pointer(unsafe.SliceData(buf)), len(buf), unsafe.Sizeof(zero))

	return buf, nil
}

func (a *tracked[T]) Deallocate(buf []T) {
	if len(buf) == 0 {
		return
	}

	var zero T
	a.tracker.forget(unsafe.Pointer(unsafe.SliceData(buf)), len(buf), unsafe.Sizeof(zero))
	a.upstream.Deallocate(buf)
}
