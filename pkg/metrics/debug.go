package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DebugMetrics records counters for the debugging pipeline.
type DebugMetrics struct {
	invocations  *prometheus.CounterVec
	quotaDenials *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewDebugMetrics registers the debug invocation metrics on the provided registerer.
func NewDebugMetrics(reg prometheus.Registerer) *DebugMetrics {
	if reg == nil {
		return &DebugMetrics{}
	}
	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "debug_invocations_total",
		Help: "Debug invocations by plan and outcome.",
	}, []string{"plan", "outcome"})
	quotaDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "debug_quota_denials_total",
		Help: "Debug requests rejected by the usage quota.",
	}, []string{"plan"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "debug_model_duration_seconds",
		Help:    "Latency of upstream model completions in seconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})
	reg.MustRegister(invocations, quotaDenials, duration)
	return &DebugMetrics{
		invocations:  invocations,
		quotaDenials: quotaDenials,
		duration:     duration,
	}
}

// IncInvocation counts a debug invocation for the plan with the given outcome.
func (d *DebugMetrics) IncInvocation(plan, outcome string) {
	if d == nil || d.invocations == nil {
		return
	}
	d.invocations.WithLabelValues(normalizeLabel(plan), normalizeLabel(outcome)).Inc()
}

// IncQuotaDenial counts a request rejected by the quota gate.
func (d *DebugMetrics) IncQuotaDenial(plan string) {
	if d == nil || d.quotaDenials == nil {
		return
	}
	d.quotaDenials.WithLabelValues(normalizeLabel(plan)).Inc()
}

// ObserveModelDuration records the upstream completion latency.
func (d *DebugMetrics) ObserveModelDuration(duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.Observe(duration.Seconds())
}

// BillingMetrics records subscription verification outcomes.
type BillingMetrics struct {
	verifications *prometheus.CounterVec
}

// NewBillingMetrics registers billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_verifications_total",
		Help: "Subscription verification attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(verifications)
	return &BillingMetrics{verifications: verifications}
}

// IncVerification counts a verification attempt with the given outcome.
func (b *BillingMetrics) IncVerification(outcome string) {
	if b == nil || b.verifications == nil {
		return
	}
	b.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}
