// Package metrics exposes Prometheus instrumentation for payment polling.
//
// A Collector owns the metric vectors and hands out per-session poll options
// that feed them. Register the collector once, then instrument each
// WaitForCompletion call:
//
//	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
//	result := client.WaitForCompletion(ctx, req, collector.Watch()...)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	paykit "github.com/paykitio/paykit-go"
)

const namespace = "paykit"

// Collector aggregates poll observations across payment sessions.
type Collector struct {
	pollsTotal      *prometheus.CounterVec
	pollErrors      *prometheus.CounterVec
	settlementTime  prometheus.Histogram
	currentInterval prometheus.Gauge
}

// NewCollector creates the poll metric set and registers it with reg.
// Registration panics on duplicate registration, same as promauto.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll cycles by observed payment status.",
		}, []string{"status"}),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Failed poll cycles by error class.",
		}, []string{"class"}),
		settlementTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Time from first poll to observed settlement.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		currentInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_backoff_seconds",
			Help:      "Backoff interval scheduled after the most recent poll failure.",
		}),
	}

	reg.MustRegister(c.pollsTotal, c.pollErrors, c.settlementTime, c.currentInterval)
	return c
}

// Watch returns poll options instrumenting a single payment session.
// A fresh call is needed per session so settlement duration is measured
// from that session's first cycle.
func (c *Collector) Watch() []paykit.PollOption {
	start := time.Now()

	return []paykit.PollOption{
		paykit.WithOnUpdate(func(update paykit.PollUpdate) {
			status := "settled"
			if update.State != nil && !update.State.Settled() {
				status = string(update.State.Status)
			}
			c.pollsTotal.WithLabelValues(status).Inc()

			if update.State.Settled() {
				c.settlementTime.Observe(time.Since(start).Seconds())
			}
		}),
		paykit.WithOnError(func(pollErr paykit.PollError) {
			c.pollErrors.WithLabelValues(errorClass(pollErr.Err)).Inc()
			c.currentInterval.Set(pollErr.NextInterval.Seconds())
		}),
	}
}

func errorClass(err *paykit.RequestError) string {
	if err == nil {
		return "unknown"
	}
	switch err.Class {
	case paykit.ClassInvalidArgument:
		return "invalid_argument"
	case paykit.ClassFatal:
		return "fatal"
	default:
		return "transient"
	}
}
