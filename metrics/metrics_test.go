package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/delaneyj/fiberparty/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RenderPass("sync")
		m.RenderSlice(time.Millisecond)
		m.Interrupted()
		m.RenderFault()
		m.Commit()
		m.HostOp("append")
		m.PassiveEffect("create")
		m.EffectFailure()
	})
}

func TestCollectorsAreRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RenderPass("default")
	m.RenderPass("default")
	m.Commit()
	m.HostOp("append")

	expected := `
# HELP fiberparty_commits_total Committed trees
# TYPE fiberparty_commits_total counter
fiberparty_commits_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fiberparty_commits_total"))

	count, err := testutil.GatherAndCount(reg, "fiberparty_render_passes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
