package features

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/sentiment"
	"github.com/wonny/sentitrade/pkg/logger"
	"github.com/wonny/sentitrade/pkg/metrics"
)

// Skip reasons reported for excluded tickers
const (
	ReasonNoValidObservations = "no_valid_observations"
	ReasonEmptySeries         = "empty_series"
	ReasonUnorderedDates      = "unordered_dates"
)

// Pipeline turns raw observations into per-ticker feature series
// ⭐ SSOT: 피처 엔지니어링은 여기서만
type Pipeline struct {
	opts       Options
	classifier sentiment.Classifier
	logger     *logger.Logger
	metrics    *metrics.Recorder
}

// Result is the output of one pipeline run
type Result struct {
	Series  map[string]*contracts.TickerSeries `json:"series"`
	Skipped []Skipped                          `json:"skipped"`
	Stats   AggregateStats                     `json:"stats"`
}

// Skipped records a ticker excluded for data quality reasons
type Skipped struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// NewPipeline validates opts and creates a pipeline. rec may be nil.
func NewPipeline(opts Options, log *logger.Logger, rec *metrics.Recorder) (*Pipeline, error) {
	if opts.PriceField == "" {
		opts.PriceField = PriceOpen
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = DefaultOptions().Workers
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Pipeline{
		opts:       opts,
		classifier: sentiment.NewClassifier(opts.SentimentThreshold),
		logger:     log.WithStage("features"),
		metrics:    rec,
	}, nil
}

// Options returns the effective options
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run aggregates observations and derives every ticker's features.
// Tickers with unrecoverable data problems are skipped, not fatal.
func (p *Pipeline) Run(ctx context.Context, observations []contracts.Observation) (*Result, error) {
	start := time.Now()
	defer p.metrics.ObserveStage("features", start)

	observations = p.filterUniverse(observations)

	rows, stats := Aggregate(observations, p.classifier)
	p.metrics.RecordRows(stats.DailyRows)

	grouped := Partition(rows)
	tickers := contracts.SortedTickers(grouped)

	// 종목별 파생 피처 계산 (병렬, 각 워커는 자기 슬롯에만 기록)
	failures := make([]*failure, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			failures[i] = p.deriveTicker(grouped[ticker])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("derive features: %w", err)
	}

	result := &Result{
		Series: make(map[string]*contracts.TickerSeries, len(tickers)),
		Stats:  stats,
	}

	for i, ticker := range tickers {
		if f := failures[i]; f != nil {
			p.skip(result, ticker, f.reason, f.err)
			continue
		}
		result.Series[ticker] = grouped[ticker]
		p.metrics.RecordTickerProcessed()
	}

	for _, ticker := range p.missingTickers(grouped, stats) {
		err := &contracts.DataQualityError{Ticker: ticker, Message: "no observation with a sentiment score"}
		p.skip(result, ticker, ReasonNoValidObservations, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"input_rows":   stats.InputRows,
		"dropped_rows": stats.DroppedRows,
		"daily_rows":   stats.DailyRows,
		"tickers":      len(result.Series),
		"skipped":      len(result.Skipped),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Feature pipeline completed")

	return result, nil
}

// failure is the per-ticker outcome slot written by one worker
type failure struct {
	reason string
	err    error
}

func (p *Pipeline) deriveTicker(s *contracts.TickerSeries) *failure {
	if s.Len() == 0 {
		return &failure{ReasonEmptySeries, &contracts.DataQualityError{Ticker: s.Ticker, Message: "series has no rows"}}
	}
	if !s.IsStrictlyIncreasing() {
		return &failure{ReasonUnorderedDates, &contracts.DataQualityError{Ticker: s.Ticker, Message: "dates are not strictly increasing"}}
	}
	if err := Derive(s, p.opts.Window, p.opts.PriceField); err != nil {
		return &failure{"derive_failed", err}
	}
	return nil
}

func (p *Pipeline) skip(result *Result, ticker, reason string, err error) {
	result.Skipped = append(result.Skipped, Skipped{Ticker: ticker, Reason: reason, Error: err.Error()})
	p.metrics.RecordTickerSkipped(reason)
	p.logger.WithTicker(ticker).WithError(err).WithField("reason", reason).Warn("Ticker skipped")
}

// filterUniverse keeps only universe tickers when a universe is configured
func (p *Pipeline) filterUniverse(observations []contracts.Observation) []contracts.Observation {
	if len(p.opts.Tickers) == 0 {
		return observations
	}

	allowed := make(map[string]struct{}, len(p.opts.Tickers))
	for _, t := range p.opts.Tickers {
		allowed[t] = struct{}{}
	}

	out := make([]contracts.Observation, 0, len(observations))
	for _, o := range observations {
		if _, ok := allowed[o.Ticker]; ok {
			out = append(out, o)
		}
	}
	return out
}

// missingTickers lists tickers that had rows but lost all of them to filtering,
// plus universe tickers that never appeared, in ascending order.
func (p *Pipeline) missingTickers(grouped map[string]*contracts.TickerSeries, stats AggregateStats) []string {
	seen := make(map[string]struct{})
	var missing []string

	consider := func(ticker string) {
		if ticker == "" {
			return
		}
		if _, ok := grouped[ticker]; ok {
			return
		}
		if _, ok := seen[ticker]; ok {
			return
		}
		seen[ticker] = struct{}{}
		missing = append(missing, ticker)
	}

	for ticker := range stats.DroppedByTicker {
		consider(ticker)
	}
	for _, ticker := range p.opts.Tickers {
		consider(ticker)
	}

	sort.Strings(missing)
	return missing
}
