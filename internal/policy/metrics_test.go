package policy

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsWithRegisterer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegisterer("test_ns", reg)
	require.NotNil(t, m)

	m.RecordEvaluation(true, time.Millisecond)
	m.RecordEvaluation(false, time.Millisecond)
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.SetResourceCount(3)
	m.SetRuleCount(7)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_DefaultNamespace(t *testing.T) {
	t.Parallel()

	m := NewMetricsWithRegisterer("", prometheus.NewRegistry())
	require.NotNil(t, m)
	m.RecordEvaluation(true, time.Millisecond)
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordEvaluation(true, time.Millisecond)
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.SetResourceCount(1)
	m.SetRuleCount(1)
}
