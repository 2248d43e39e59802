package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	resolveAttempts *prometheus.CounterVec
	modelCache      *prometheus.CounterVec
	trainings       *prometheus.CounterVec
	trainingSeconds prometheus.Histogram
	forecasts       *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// New returns the process-wide recorder registered with the default Prometheus registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegistry creates a recorder registered on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		resolveAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredictor_resolve_attempts_total",
				Help: "Market data lookups made while resolving a ticker",
			},
			[]string{"rewrite", "result"},
		),
		modelCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredictor_model_cache_total",
				Help: "Model artifact lookups by outcome",
			},
			[]string{"result"},
		),
		trainings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredictor_trainings_total",
				Help: "Model training runs by outcome",
			},
			[]string{"result"},
		),
		trainingSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockpredictor_training_duration_seconds",
				Help:    "Duration of model training runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		forecasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredictor_forecasts_total",
				Help: "Forecasts served by horizon kind",
			},
			[]string{"horizon"},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredictor_journal_messages_total",
				Help: "Forecast records written to the journal backend",
			},
			[]string{"backend"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredictor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpredictor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(
		r.resolveAttempts, r.modelCache, r.trainings, r.trainingSeconds,
		r.forecasts, r.messagesSent, r.errorsTotal, r.latency,
	)
	return r
}

// RecordResolveAttempt records one provider lookup made by the resolver.
func (r *Recorder) RecordResolveAttempt(rewrite string, found bool) {
	result := "empty"
	if found {
		result = "found"
	}
	r.resolveAttempts.WithLabelValues(rewrite, result).Inc()
}

// RecordModelCache records whether trained artifacts could be reused.
func (r *Recorder) RecordModelCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.modelCache.WithLabelValues(result).Inc()
}

// RecordTraining records a finished training run.
func (r *Recorder) RecordTraining(seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.trainings.WithLabelValues(result).Inc()
	r.trainingSeconds.Observe(seconds)
}

// RecordForecast records a served forecast. Horizons above 30 share one label.
func (r *Recorder) RecordForecast(horizon int) {
	label := "31+"
	if horizon <= 30 {
		label = strconv.Itoa(horizon)
	}
	r.forecasts.WithLabelValues(label).Inc()
}

// RecordMessageSent records a journal write.
func (r *Recorder) RecordMessageSent(backend string) {
	r.messagesSent.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}
