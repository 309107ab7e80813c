package alloc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics("test")

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(m))

	ints := Measure[int32](nil, m)
	bools := Measure[bool](nil, m)

	a, err := ints.Allocate(8)
	require.NoError(t, err)
	b, err := bools.Allocate(3)
	require.NoError(t, err)

	assert.Equal(t, float64(8*4+3), testutil.ToFloat64(m.allocateBytesCounter))
	assert.Equal(t, float64(8*4+3), testutil.ToFloat64(m.inuseBytesGauge))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.allocateObjectsCounter))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.inuseObjectsGauge))

	ints.Deallocate(a)
	bools.Deallocate(b)

	assert.Equal(t, float64(8*4+3), testutil.ToFloat64(m.allocateBytesCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inuseBytesGauge))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.allocateObjectsCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inuseObjectsGauge))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMetrics_FailedAllocation(t *testing.T) {
	m := NewMetrics("test")
	a := Measure(Limit[int](nil, 2), m)

	_, err := a.Allocate(3)
	require.ErrorIs(t, err, ErrBudgetExceeded)

	_, err = a.Allocate(0)
	require.NoError(t, err)

	assert.Equal(t, float64(0), testutil.ToFloat64(m.allocateObjectsCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inuseBytesGauge))
}
