package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.InvoicesCreated.Inc()
	m.InvoicesSkipped.WithLabelValues(SkipAlreadyBilled).Add(2)
	m.Allocations.WithLabelValues("EQUAL", "ok").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvoicesCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvoicesSkipped.WithLabelValues(SkipAlreadyBilled)))

	count, err := testutil.GatherAndCount(reg, "colivsplit_allocation_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNopIsIsolated(t *testing.T) {
	a, b := Nop(), Nop()
	a.InvoicesCreated.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.InvoicesCreated))
}
