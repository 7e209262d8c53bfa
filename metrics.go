// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "handoff"

type metrics struct {
	designatedDispatches prometheus.Counter
	waitTimeouts         *prometheus.CounterVec
	waitDuration         prometheus.Histogram
	droppedWrites        prometheus.Counter
	callbackPanics       prometheus.Counter
}

// newMetrics registers every server metric with reg. Registering two
// servers with the same prometheus.Registerer panics, like promauto does.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		designatedDispatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "designated_dispatches_total",
			Help:      "Total number of route callbacks posted to the designated executor",
		}),

		waitTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "wait_timeouts_total",
			Help:      "Total number of responses sent because the max wait elapsed before the callback finished",
		}, []string{"route"}),

		waitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "wait_duration_seconds",
			Help:      "Time network goroutines spent waiting on route callbacks",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		droppedWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_writes_total",
			Help:      "Total number of writes to responses which had already been sent",
		}),

		callbackPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "callback_panics_total",
			Help:      "Total number of route callbacks which panicked",
		}),
	}
}
