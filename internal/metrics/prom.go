package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromObserver records the reassignment engine's progress in Prometheus metrics.
type PromObserver struct {
	registry     *prometheus.Registry
	applied      prometheus.Counter
	rejected     prometheus.Counter
	sweeps       prometheus.Counter
	pathLength   prometheus.Histogram
	satisfaction prometheus.Gauge
}

// NewPromObserver registers the engine metrics on a private registry so repeated runs in one process
// never collide.
func NewPromObserver() (*PromObserver, error) {
	observer := &PromObserver{
		registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dropadd_paths_applied_total",
			Help: "Total number of augmenting paths committed",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dropadd_paths_rejected_total",
			Help: "Total number of augmenting paths rejected by the applier",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dropadd_sweeps_total",
			Help: "Total number of sweeps over the transition graph",
		}),
		pathLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dropadd_path_length",
			Help:    "Number of edges in committed augmenting paths",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		satisfaction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dropadd_satisfaction_ratio",
			Help: "Share of students with requests that got at least one of them",
		}),
	}

	for _, collector := range []prometheus.Collector{observer.applied, observer.rejected, observer.sweeps, observer.pathLength, observer.satisfaction} {
		if err := observer.registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return observer, nil
}

func (observer *PromObserver) PathApplied(length int) {
	observer.applied.Inc()
	observer.pathLength.Observe(float64(length))
}

func (observer *PromObserver) PathRejected(int) {
	observer.rejected.Inc()
}

func (observer *PromObserver) SweepCompleted(uint64) {
	observer.sweeps.Inc()
}

func (observer *PromObserver) SetSatisfaction(ratio float64) {
	observer.satisfaction.Set(ratio)
}

// WriteTextfile dumps every metric in the text exposition format, suitable for a node exporter textfile collector
func (observer *PromObserver) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, observer.registry)
}
