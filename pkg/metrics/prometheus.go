package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsTotal      *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	episodesStarted  *prometheus.CounterVec
	episodesEnded    *prometheus.CounterVec
	activeRecordings prometheus.Gauge
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscope_events_total",
				Help: "Total number of market events dispatched",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pumpscope_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		episodesStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscope_episodes_started_total",
				Help: "Total number of anomaly episodes opened",
			},
			[]string{"strategy"},
		),
		episodesEnded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscope_episodes_ended_total",
				Help: "Total number of anomaly episodes closed",
			},
			[]string{"strategy"},
		),
		activeRecordings: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pumpscope_active_recordings",
				Help: "Number of chart recording sessions in progress",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pumpscope_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvent records a dispatched market event.
func (r *Recorder) RecordEvent(kind string) {
	r.eventsTotal.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordEpisodeStarted records an episode opening.
func (r *Recorder) RecordEpisodeStarted(strategy string) {
	r.episodesStarted.WithLabelValues(strategy).Inc()
}

// RecordEpisodeEnded records an episode closing.
func (r *Recorder) RecordEpisodeEnded(strategy string) {
	r.episodesEnded.WithLabelValues(strategy).Inc()
}

// RecordActiveRecordings sets the live recording session gauge.
func (r *Recorder) RecordActiveRecordings(n int) {
	r.activeRecordings.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
