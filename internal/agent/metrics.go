package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_samples_collected_total",
		Help: "Total number of metric samples collected",
	})

	collectionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_collection_failures_total",
		Help: "Total number of failed collection attempts",
	})

	alertsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_alerts_fired_total",
		Help: "Total number of alerts opened",
	})

	alertsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_alerts_resolved_total",
		Help: "Total number of alerts resolved",
	})

	openAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skywatch_open_alerts",
		Help: "Number of currently open alerts",
	})

	sinkBatchesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_sink_batches_dropped_total",
		Help: "Total number of batches dropped by the sink queue",
	})

	ticksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_ticks_completed_total",
		Help: "Total number of completed collection cycles",
	})
)
