package collections

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// resource counts how many times each id was released. It is comparable,
// so it can be used as a map key.
type resource struct {
	id       int
	released *map[int]int
}

func (r resource) Release() {
	(*r.released)[r.id]++
}

func newResources(n int) ([]resource, map[int]int) {
	released := make(map[int]int)
	rs := make([]resource, n)
	for i := range rs {
		rs[i] = resource{id: i, released: &released}
	}

	return rs, released
}

func requirePanicsWith(t *testing.T, target error, f func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")

		err, ok := r.(error)
		require.Truef(t, ok, "panic value %v is not an error", r)
		// errors.Is also matches marks, which the stdlib one doesn't see.
		require.Truef(t, errors.Is(err, target), "got %v, want %v", err, target)
	}()

	f()
}
