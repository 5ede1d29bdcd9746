// Package metrics provides Prometheus metrics for LED group configuration loads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load results used as the result label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	configLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledmanager",
		Subsystem: "config",
		Name:      "loads_total",
		Help:      "Total configuration loads by result",
	}, []string{"result"})

	configLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledmanager",
		Subsystem: "config",
		Name:      "load_errors_total",
		Help:      "Total failed configuration loads by error kind",
	}, []string{"kind"})

	configLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledmanager",
		Subsystem: "config",
		Name:      "load_duration_seconds",
		Help:      "Time spent loading and validating the configuration",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	configGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledmanager",
		Subsystem: "config",
		Name:      "groups",
		Help:      "Number of groups in the active configuration",
	})

	configLEDs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledmanager",
		Subsystem: "config",
		Name:      "leds",
		Help:      "Number of distinct LEDs in the active configuration",
	})

	configLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledmanager",
		Subsystem: "config",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful configuration load",
	})
)

// ObserveLoadSuccess records a successful load and the size of the new map.
func ObserveLoadSuccess(duration time.Duration, groups, leds int, at time.Time) {
	configLoads.WithLabelValues(ResultSuccess).Inc()
	configLoadDuration.Observe(duration.Seconds())
	configGroups.Set(float64(groups))
	configLEDs.Set(float64(leds))
	configLastSuccess.Set(float64(at.Unix()))
}

// ObserveLoadFailure records a failed load. The active map gauges are left as is.
func ObserveLoadFailure(duration time.Duration, kind string) {
	configLoads.WithLabelValues(ResultFailure).Inc()
	configLoadErrors.WithLabelValues(kind).Inc()
	configLoadDuration.Observe(duration.Seconds())
}
