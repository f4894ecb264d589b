// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_runs_started_total",
		Help: "Sequences launched by the scheduler or manually.",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_runs_completed_total",
		Help: "Sequences that ran to natural completion.",
	})

	RunsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_runs_cancelled_total",
		Help: "Sequences aborted by operator cancellation.",
	})

	RunsSkippedHumidity = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_runs_skipped_humidity_total",
		Help: "Scheduled runs skipped because humidity exceeded the threshold.",
	})

	HardwareErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_hardware_errors_total",
		Help: "Hardware command failures by zone.",
	}, []string{"zone"})

	ZoneActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_zone_activations_total",
		Help: "Exclusive activations by zone.",
	}, []string{"zone"})
)
