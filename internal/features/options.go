package features

import (
	"math"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/sentiment"
)

// DefaultWindow is the trailing look-back of the rolling features
const DefaultWindow = 7

// PriceField selects which daily price column drives the price features
type PriceField string

const (
	PriceOpen  PriceField = "open"
	PriceHigh  PriceField = "high"
	PriceLow   PriceField = "low"
	PriceClose PriceField = "close"
)

// Options configures a pipeline run
type Options struct {
	Window             int        // rolling window (rows)
	PriceField         PriceField // default: open (매매는 익일 시가 기준)
	SentimentThreshold float64    // classifier threshold, default 0.1; 0 = no neutral band
	Workers            int        // per-ticker derivation concurrency
	Tickers            []string   // optional universe filter
}

// DefaultOptions returns the configuration of the original study
func DefaultOptions() Options {
	return Options{
		Window:             DefaultWindow,
		PriceField:         PriceOpen,
		SentimentThreshold: sentiment.DefaultThreshold,
		Workers:            4,
	}
}

// Validate rejects settings that would make every derived column meaningless
func (o Options) Validate() error {
	if o.Window <= 0 {
		return contracts.NewConfigurationError("features.window", "must be > 0, got %d", o.Window)
	}
	switch o.PriceField {
	case PriceOpen, PriceHigh, PriceLow, PriceClose:
	default:
		return contracts.NewConfigurationError("features.price_field", "unknown price field %q", o.PriceField)
	}
	if o.SentimentThreshold < 0 || math.IsNaN(o.SentimentThreshold) || math.IsInf(o.SentimentThreshold, 0) {
		return contracts.NewConfigurationError("features.sentiment_threshold", "must be a finite value >= 0, got %v", o.SentimentThreshold)
	}
	if o.Workers < 0 {
		return contracts.NewConfigurationError("features.workers", "must be >= 0, got %d", o.Workers)
	}
	return nil
}

// price extracts the configured price column of a row
func (f PriceField) price(r *contracts.DailyRow) *float64 {
	switch f {
	case PriceHigh:
		return r.High
	case PriceLow:
		return r.Low
	case PriceClose:
		return r.Close
	default:
		return r.Open
	}
}
