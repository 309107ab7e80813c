package collections

import "github.com/cockroachdb/errors"

// Contract violations. The containers panic with an error wrapping one of
// these; they are programmer errors and are not returned. Match them with
// errors.Is from github.com/cockroachdb/errors, which also sees marks.
var (
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrCapacityOverflow = errors.New("capacity overflow")
	ErrTableCorrupt     = errors.New("hash table has no free slot")
	ErrAllocFailed      = errors.New("allocation failed")
)

func panicIndex(op string, index, length int) {
	panic(errors.Wrapf(ErrIndexOutOfBounds, "%s: index %d, len %d", op, index, length))
}
