package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes
const (
	OutcomeOK         = "ok"
	OutcomeConstraint = "constraint"
	OutcomeFailure    = "failure"
)

var (
	// Search metrics
	searchEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdca_search_evaluations_total",
			Help: "Total number of objective evaluations by outcome",
		},
		[]string{"outcome"},
	)

	simulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sdca_simulation_duration_seconds",
			Help:    "Wall time of a single backtest run",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	searchBestValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdca_search_best_value",
			Help: "Best sentiment portfolio value found so far",
		},
	)

	// Data metrics
	dataFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdca_data_fetch_total",
			Help: "Total number of data source fetches",
		},
		[]string{"source", "outcome"},
	)

	simulatedWeeks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdca_simulated_weeks",
			Help: "Number of usable purchase dates in the last run",
		},
	)
)

func init() {
	prometheus.MustRegister(searchEvaluationsTotal)
	prometheus.MustRegister(simulationDuration)
	prometheus.MustRegister(searchBestValue)
	prometheus.MustRegister(dataFetchTotal)
	prometheus.MustRegister(simulatedWeeks)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordEvaluation counts one objective evaluation
func RecordEvaluation(outcome string) {
	searchEvaluationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSimulation records how long a backtest run took
func ObserveSimulation(d time.Duration) {
	simulationDuration.Observe(d.Seconds())
}

// UpdateBestValue sets the best portfolio value gauge
func UpdateBestValue(value float64) {
	searchBestValue.Set(value)
}

// RecordDataFetch counts a fetch against a data source
func RecordDataFetch(source string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailure
	}
	dataFetchTotal.WithLabelValues(source, outcome).Inc()
}

// UpdateSimulatedWeeks sets the usable week count of the last run
func UpdateSimulatedWeeks(weeks int) {
	simulatedWeeks.Set(float64(weeks))
}
