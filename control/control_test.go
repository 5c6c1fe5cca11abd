package control

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndCollect(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(prometheus.Labels{"server": "test"})
	require.NoError(t, m.Register(reg))

	m.Accepted.Inc()
	m.Rejected.WithLabelValues(ReasonBlacklist).Add(2)
	m.Active.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Accepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejected.WithLabelValues(ReasonBlacklist)))

	expected := `
# HELP hioload_tcp_connections Currently registered connections.
# TYPE hioload_tcp_connections gauge
hioload_tcp_connections{server="test"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "hioload_tcp_connections"))

	// a second server needs distinct labels
	assert.Error(t, NewMetrics(prometheus.Labels{"server": "test"}).Register(reg))
	assert.NoError(t, NewMetrics(prometheus.Labels{"server": "other"}).Register(reg))
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })

	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Contains(t, state, "runtime.cpus")

	rec := httptest.NewRecorder()
	dp.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/state", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"answer": 42`)
}

func TestReloadHooksSync(t *testing.T) {
	var r ReloadHooks
	var order []int
	r.Register(func() { order = append(order, 1) })
	r.Register(func() { order = append(order, 2) })
	r.TriggerSync()
	assert.Equal(t, []int{1, 2}, order)
}
