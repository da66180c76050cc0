// Package metrics exposes Prometheus collectors for reconciliation passes.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fiberparty"

type Metrics struct {
	renderPasses   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	interrupted    prometheus.Counter
	renderFaults   prometheus.Counter
	commits        prometheus.Counter
	hostOps        *prometheus.CounterVec
	passiveEffects *prometheus.CounterVec
	effectFailures prometheus.Counter
}

// New creates the collectors and registers them on reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renderPasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "render_passes_total",
				Help:      "Render passes started by lane",
			},
			[]string{"lane"},
		),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Wall time of one render slice",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
		}),
		interrupted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupted_passes_total",
			Help:      "Render passes restarted before they completed",
		}),
		renderFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_faults_total",
			Help:      "Render passes aborted by a fault",
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Committed trees",
		}),
		hostOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "host_operations_total",
				Help:      "Host adapter calls made during commit",
			},
			[]string{"op"},
		),
		passiveEffects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passive_effects_total",
				Help:      "Passive effect callbacks invoked",
			},
			[]string{"phase"},
		),
		effectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effect_failures_total",
			Help:      "Effect callbacks that panicked",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.renderPasses,
			m.renderDuration,
			m.interrupted,
			m.renderFaults,
			m.commits,
			m.hostOps,
			m.passiveEffects,
			m.effectFailures,
		)
	}
	return m
}

func (m *Metrics) RenderPass(lane string) {
	if m == nil {
		return
	}
	m.renderPasses.WithLabelValues(lane).Inc()
}

func (m *Metrics) RenderSlice(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) Interrupted() {
	if m == nil {
		return
	}
	m.interrupted.Inc()
}

func (m *Metrics) RenderFault() {
	if m == nil {
		return
	}
	m.renderFaults.Inc()
}

func (m *Metrics) Commit() {
	if m == nil {
		return
	}
	m.commits.Inc()
}

func (m *Metrics) HostOp(op string) {
	if m == nil {
		return
	}
	m.hostOps.WithLabelValues(op).Inc()
}

func (m *Metrics) PassiveEffect(phase string) {
	if m == nil {
		return
	}
	m.passiveEffects.WithLabelValues(phase).Inc()
}

func (m *Metrics) EffectFailure() {
	if m == nil {
		return
	}
	m.effectFailures.Inc()
}
