// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package updater

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// updatesDetected counts exports picked up by the watcher.
	// Labels: status (new, refreshed, invalid)
	updatesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "motionlens",
		Subsystem: "updater",
		Name:      "updates_detected_total",
		Help:      "Exported actuals detected by the watcher",
	}, []string{"status"})

	// updatesAccepted counts accepted golden updates.
	updatesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "motionlens",
		Subsystem: "updater",
		Name:      "updates_accepted_total",
		Help:      "Pending updates accepted into the golden store",
	})

	// pendingUpdates tracks the current review queue depth.
	pendingUpdates = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "motionlens",
		Subsystem: "updater",
		Name:      "pending_updates",
		Help:      "Pending updates awaiting review",
	})

	// diffLatency measures diff request handling time.
	// Labels: status (ok, missing_golden, error)
	diffLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "motionlens",
		Subsystem: "updater",
		Name:      "diff_latency_seconds",
		Help:      "Golden diff computation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"status"})
)
