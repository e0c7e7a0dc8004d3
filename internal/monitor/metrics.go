// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// checksTotal counts per-app check outcomes across all batch runs.
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storewatch_checks_total",
		Help: "Per-app check outcomes, labeled online, removed or error.",
	}, []string{"outcome"})

	// alertsRecordedTotal counts persisted removal alerts.
	alertsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storewatch_alerts_recorded_total",
		Help: "Removal alert events appended to the store.",
	})

	// batchRunsTotal counts completed batch runs by result.
	batchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storewatch_batch_runs_total",
		Help: "Completed batch runs, labeled ok, empty, canceled or failed.",
	}, []string{"result"})

	// batchDuration observes wall-clock batch run time.
	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storewatch_batch_duration_seconds",
		Help:    "Duration of a full batch run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

const (
	outcomeOnline  = "online"
	outcomeRemoved = "removed"
	outcomeError   = "error"
)
