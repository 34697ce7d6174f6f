package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManagerRegistersInstruments verifies the instruments land on the given
// registry under the namespace and subsystem.
func TestManagerRegistersInstruments(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	m.CounterReps.WithLabelValues("squat").Add(3)
	m.CounterFrames.WithLabelValues(FrameCounted).Inc()
	m.GaugeActiveSession.Set(1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterReps.WithLabelValues("squat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GaugeActiveSession))

	n, err := testutil.GatherAndCount(reg, "reptrack_test_reps", "reptrack_test_active_session")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// TestSetupPrometheus verifies the runtime collectors are registered.
func TestSetupPrometheus(t *testing.T) {
	reg := SetupPrometheus()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
