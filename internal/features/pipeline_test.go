package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/pkg/logger"
	"github.com/wonny/sentitrade/pkg/metrics"
)

func fixture() []contracts.Observation {
	var out []contracts.Observation
	for d := 0; d < 12; d++ {
		out = append(out,
			obs("AAPL", d, 0.3, 100+float64(d)),
			obs("AAPL", d, -0.2, 102+float64(d)),
			obs("MSFT", d, 0.05, 300-float64(d)),
		)
	}
	// TSLA 행은 모두 sentiment 누락
	out = append(out, contracts.Observation{Date: date(0), Ticker: "TSLA", Open: f(900)})
	return out
}

func TestPipeline_Run(t *testing.T) {
	rec := metrics.New()
	p, err := NewPipeline(DefaultOptions(), logger.NewNop(), rec)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), fixture())
	require.NoError(t, err)

	require.Len(t, result.Series, 2)
	assert.Equal(t, 12, result.Series["AAPL"].Len())
	assert.Equal(t, 12, result.Series["MSFT"].Len())

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "TSLA", result.Skipped[0].Ticker)
	assert.Equal(t, ReasonNoValidObservations, result.Skipped[0].Reason)

	assert.Equal(t, 1, result.Stats.DroppedRows)
	assert.Equal(t, 24, result.Stats.DailyRows)

	aapl := result.Series["AAPL"]
	assert.InDelta(t, 101.0, *aapl.Rows[0].Open, 1e-12)
	assert.Equal(t, 2, aapl.Rows[0].TotalCount)
	assert.Equal(t, 1, aapl.Rows[0].PositiveCount)
	assert.Equal(t, 1, aapl.Rows[0].NegativeCount)
	assert.NotNil(t, aapl.Rows[7].Features.PriceVsRollingPct)
	assert.Nil(t, aapl.Rows[6].Features.PriceVsRollingPct)
}

func TestPipeline_UniverseFilter(t *testing.T) {
	opts := DefaultOptions()
	opts.Tickers = []string{"MSFT", "NVDA"}

	p, err := NewPipeline(opts, nil, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), fixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"MSFT"}, contracts.SortedTickers(result.Series))
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "NVDA", result.Skipped[0].Ticker, "universe ticker without data is reported")
}

func TestPipeline_ConcurrencyDoesNotChangeResult(t *testing.T) {
	run := func(workers int) *Result {
		opts := DefaultOptions()
		opts.Workers = workers
		p, err := NewPipeline(opts, nil, nil)
		require.NoError(t, err)
		result, err := p.Run(context.Background(), fixture())
		require.NoError(t, err)
		return result
	}

	serial := run(1)
	parallel := run(8)

	assert.Equal(t, serial.Skipped, parallel.Skipped)
	require.Equal(t, contracts.SortedTickers(serial.Series), contracts.SortedTickers(parallel.Series))
	for ticker, s := range serial.Series {
		assert.Equal(t, s.Rows, parallel.Series[ticker].Rows, ticker)
	}
}

func TestPipeline_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"zero window", func(o *Options) { o.Window = 0 }},
		{"negative threshold", func(o *Options) { o.SentimentThreshold = -0.1 }},
		{"unknown price field", func(o *Options) { o.PriceField = "vwap" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			_, err := NewPipeline(opts, nil, nil)
			require.Error(t, err)
			assert.True(t, contracts.IsConfigurationError(err))
		})
	}
}

func TestPipeline_ZeroSentimentThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.SentimentThreshold = 0

	p, err := NewPipeline(opts, nil, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), []contracts.Observation{
		obs("AAPL", 1, 0.05, 100),
		obs("AAPL", 1, -0.02, 100),
		obs("AAPL", 1, 0, 100),
	})
	require.NoError(t, err)

	row := result.Series["AAPL"].Rows[0]
	assert.Equal(t, 1, row.PositiveCount)
	assert.Equal(t, 1, row.NegativeCount)
	assert.Equal(t, 1, row.NeutralCount)
	assert.Equal(t, 3, row.TotalCount)
}

func TestPipeline_CancelledContext(t *testing.T) {
	p, err := NewPipeline(DefaultOptions(), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx, fixture())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_EmptyInput(t *testing.T) {
	p, err := NewPipeline(DefaultOptions(), nil, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Series)
	assert.Empty(t, result.Skipped)
}
