package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	t.Parallel()

	c := NewPrometheusCollector()
	require.False(t, c.IsInterfaceNil())

	c.ObserveTick(time.Millisecond)
	c.ObserveTick(2 * time.Millisecond)
	c.IncTickFault()
	c.IncAlert("fever", common.SeverityCritical)
	c.SetVital(common.HeartRate, 74)
	c.SetConnectedDevices(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.ticks))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.tickFaults))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.alerts.WithLabelValues("fever", "critical")))
	assert.Equal(t, float64(74), testutil.ToFloat64(c.vitals.WithLabelValues("heartRate")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.devices))
}

func TestPrometheusCollector_Handler(t *testing.T) {
	t.Parallel()

	first := NewPrometheusCollector()
	second := NewPrometheusCollector()
	first.SetVital(common.Temperature, 98.4)
	second.SetVital(common.Temperature, 99.1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	first.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `healthvital_vital_value{kind="temperature"} 98.4`)
	assert.NotContains(t, w.Body.String(), "99.1")
}
