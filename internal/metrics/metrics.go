package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels operations that returned a result.
	OutcomeSuccess = "success"
	// OutcomeError labels operations that failed validation or a dependency.
	OutcomeError = "error"
)

const namespace = "sda_engine"

var (
	routingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routings_total",
			Help:      "Total number of routing computations, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of timeline predictions, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_seconds",
			Help:      "Timeline prediction latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	predictedDays = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_days",
			Help:      "Estimated approval duration in days per prediction.",
			Buckets:   []float64{1, 3, 5, 10, 15, 20, 30, 45, 60},
		},
	)

	bottlenecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bottlenecks_total",
			Help:      "Bottleneck warnings emitted, partitioned by issue and severity.",
		},
		[]string{"issue", "severity"},
	)

	snapshotRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshes_total",
			Help:      "Snapshot refresh attempts, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	snapshotRefreshedTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshed_timestamp_seconds",
			Help:      "Unix time of the last published snapshot.",
		},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Evaluation events handed to the publisher, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches sda-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		routingsTotal,
		predictionsTotal,
		predictionDurationSeconds,
		predictedDays,
		bottlenecksTotal,
		snapshotRefreshesTotal,
		snapshotRefreshedTimestamp,
		eventsPublishedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func outcomeLabel(outcome string) string {
	if outcome != OutcomeError {
		return OutcomeSuccess
	}
	return OutcomeError
}

// ObserveRouting counts a routing computation.
func ObserveRouting(outcome string) {
	routingsTotal.WithLabelValues(outcomeLabel(outcome)).Inc()
}

// ObservePrediction records a prediction duration, outcome and estimate.
func ObservePrediction(duration time.Duration, outcome string, estimatedDays float64) {
	label := outcomeLabel(outcome)
	predictionsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	predictionDurationSeconds.Observe(duration.Seconds())
	if label == OutcomeSuccess {
		predictedDays.Observe(estimatedDays)
	}
}

// ObserveBottleneck counts one emitted bottleneck warning.
func ObserveBottleneck(issue, severity string) {
	bottlenecksTotal.WithLabelValues(issue, severity).Inc()
}

// ObserveSnapshotRefresh counts a refresh; successful ones move the timestamp gauge.
func ObserveSnapshotRefresh(outcome string, refreshedAt time.Time) {
	label := outcomeLabel(outcome)
	snapshotRefreshesTotal.WithLabelValues(label).Inc()
	if label == OutcomeSuccess && !refreshedAt.IsZero() {
		snapshotRefreshedTimestamp.Set(float64(refreshedAt.Unix()))
	}
}

// ObserveEventPublish counts an evaluation event hand-off.
func ObserveEventPublish(outcome string) {
	eventsPublishedTotal.WithLabelValues(outcomeLabel(outcome)).Inc()
}
