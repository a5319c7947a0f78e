package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, job string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(job).Write(&m))
	return m.GetCounter().GetValue()
}

func TestCronJobMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)

	metrics.IncSuccess("cart-expiry")
	metrics.IncSuccess("cart-expiry")
	metrics.IncFailure("payment-expiry")
	metrics.ObserveDuration("cart-expiry", 250*time.Millisecond)

	assert.Equal(t, float64(2), counterValue(t, metrics.success, "cart-expiry"))
	assert.Equal(t, float64(1), counterValue(t, metrics.failure, "payment-expiry"))
}

func TestCronJobMetrics_NilSafe(t *testing.T) {
	var metrics *CronJobMetrics
	metrics.IncSuccess("x")
	metrics.IncFailure("x")
	metrics.ObserveDuration("x", time.Second)

	unregistered := NewCronJobMetrics(nil)
	unregistered.IncSuccess("x")
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "unknown", normalizeLabel(""))
	assert.Equal(t, "cart-expiry", normalizeLabel("cart-expiry"))
}
