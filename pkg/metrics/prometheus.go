package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects pipeline and simulation metrics on its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	tickersProcessed prometheus.Counter
	tickersSkipped   *prometheus.CounterVec
	rowsAggregated   prometheus.Counter
	stageDuration    *prometheus.HistogramVec
	equityMultiple   prometheus.Gauge
	noOpContribs     prometheus.Counter
}

// New creates a metrics recorder with a private registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tickersProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentitrade_tickers_processed_total",
			Help: "Tickers that produced a feature series",
		}),
		tickersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentitrade_tickers_skipped_total",
			Help: "Tickers excluded because of data quality errors",
		}, []string{"reason"}),
		rowsAggregated: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentitrade_daily_rows_total",
			Help: "Daily (date, ticker) rows produced by aggregation",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentitrade_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		equityMultiple: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sentitrade_equity_multiple",
			Help: "x_T / x_0 of the most recent simulation",
		}),
		noOpContribs: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentitrade_noop_contributions_total",
			Help: "Ticker-days contributed at zero return because of missing data",
		}),
	}
}

// RecordTickerProcessed counts one successfully derived series
func (r *Recorder) RecordTickerProcessed() {
	if r == nil {
		return
	}
	r.tickersProcessed.Inc()
}

// RecordTickerSkipped counts one excluded ticker
func (r *Recorder) RecordTickerSkipped(reason string) {
	if r == nil {
		return
	}
	r.tickersSkipped.WithLabelValues(reason).Inc()
}

// RecordRows adds aggregated daily rows
func (r *Recorder) RecordRows(n int) {
	if r == nil {
		return
	}
	r.rowsAggregated.Add(float64(n))
}

// ObserveStage records how long a stage took since start
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordSimulation stores the final multiple and the no-op count of a run
func (r *Recorder) RecordSimulation(multiple float64, noOps int) {
	if r == nil {
		return
	}
	r.equityMultiple.Set(multiple)
	r.noOpContribs.Add(float64(noOps))
}

// Registry exposes the underlying registry (tests, custom exporters)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
