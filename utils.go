package collections

import (
	"math"
	"math/bits"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Returns the next power of 2 for the given value `v`.
// Zero maps to 1. Panics with ErrCapacityOverflow when the result doesn't fit.
func NextPowerOf2(v int) int {
	if v <= 1 {
		return 1
	}

	shift := bits.Len64(uint64(v - 1))
	if shift >= bits.UintSize-1 {
		panic(errors.Wrapf(ErrCapacityOverflow, "next power of two of %d", v))
	}

	return 1 << shift
}

// Estimates hash map capacity (number of slots) that fits in the given
// memory size in bytes. A slot costs one hash word plus a key and a value.
// The result is a power of two, or 0 if not even a minimal table fits.
func CapacityFromSize[K comparable, V any](size uintptr) int {
	var (
		k K
		v V
	)

	slotSize := unsafe.Sizeof(uint64(0)) + unsafe.Sizeof(k) + unsafe.Sizeof(v)
	slots := size / slotSize
	if slots < defaultMapCapacity {
		return 0
	}

	return 1 << (bits.Len64(uint64(slots)) - 1)
}

func checkedAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		panic(errors.Wrapf(ErrCapacityOverflow, "%d + %d", a, b))
	}

	return a + b
}

func checkedDouble(a int) int {
	if a > math.MaxInt/2 {
		panic(errors.Wrapf(ErrCapacityOverflow, "%d * 2", a))
	}

	return a * 2
}
