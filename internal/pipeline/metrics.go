package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/vocal-weather/internal/outcome"
)

// Stage names used in metrics and logs.
const (
	StageSpeech    = "speech"
	StageCity      = "extract_city"
	StageHorizon   = "extract_horizon"
	StageGeocoding = "geocoding"
	StageWeather   = "weather"
	StageStorage   = "storage"
)

// Metrics counts stage outcomes.
type Metrics struct {
	stages   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocal_weather",
			Name:      "stage_total",
			Help:      "Pipeline stage executions by outcome.",
		}, []string{"stage", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vocal_weather",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.stages, m.duration)
	}
	return m
}

func (m *Metrics) observe(stage string, o outcome.Outcome) {
	if m == nil {
		return
	}
	status := outcome.StatusSucceeded
	if !o.OK() {
		status = outcome.StatusFailed
	}
	m.stages.WithLabelValues(stage, string(status)).Inc()
}

func (m *Metrics) observeRun(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
