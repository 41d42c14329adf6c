package features

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/sentiment"
)

// AggregateStats summarises what aggregation kept and dropped
type AggregateStats struct {
	InputRows   int
	DroppedRows int
	DailyRows   int

	// DroppedByTicker counts rows removed for missing required fields
	DroppedByTicker map[string]int
}

type groupKey struct {
	date   time.Time
	ticker string
}

// mean accumulates the finite, non-nil values of one column
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return
	}
	m.sum += *v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

type group struct {
	neg, neu, pos, compound mean

	open, high, low, closePx, volume, dividends, splits mean

	maxSentiment float64
	minSentiment float64

	positive, negative, neutral, total int
}

func (g *group) add(o *contracts.Observation, label contracts.SentimentLabel) {
	score := *o.Sentiment.Compound
	if g.total == 0 || score > g.maxSentiment {
		g.maxSentiment = score
	}
	if g.total == 0 || score < g.minSentiment {
		g.minSentiment = score
	}

	g.neg.add(o.Sentiment.Neg)
	g.neu.add(o.Sentiment.Neu)
	g.pos.add(o.Sentiment.Pos)
	g.compound.add(o.Sentiment.Compound)
	g.open.add(o.Open)
	g.high.add(o.High)
	g.low.add(o.Low)
	g.closePx.add(o.Close)
	g.volume.add(o.Volume)
	g.dividends.add(o.Dividends)
	g.splits.add(o.Splits)

	switch label {
	case contracts.SentimentPositive:
		g.positive++
	case contracts.SentimentNegative:
		g.negative++
	default:
		g.neutral++
	}
	g.total++
}

func (g *group) row(key groupKey) *contracts.DailyRow {
	return &contracts.DailyRow{
		Date:              key.date,
		Ticker:            key.ticker,
		SentimentNeg:      g.neg.value(),
		SentimentNeu:      g.neu.value(),
		SentimentPos:      g.pos.value(),
		SentimentCompound: g.compound.value(),
		Open:              g.open.value(),
		High:              g.high.value(),
		Low:               g.low.value(),
		Close:             g.closePx.value(),
		Volume:            g.volume.value(),
		Dividends:         g.dividends.value(),
		Splits:            g.splits.value(),
		MaxSentiment:      g.maxSentiment,
		MinSentiment:      g.minSentiment,
		PositiveCount:     g.positive,
		NegativeCount:     g.negative,
		NeutralCount:      g.neutral,
		TotalCount:        g.total,
	}
}

// Aggregate groups observations by (day, ticker) and returns the rows sorted
// by (Ticker, Date). Rows without a usable compound score are dropped before
// grouping, so a group never exists with zero observations.
func Aggregate(observations []contracts.Observation, classifier sentiment.Classifier) ([]*contracts.DailyRow, AggregateStats) {
	stats := AggregateStats{
		InputRows:       len(observations),
		DroppedByTicker: make(map[string]int),
	}

	groups := make(map[groupKey]*group)
	for i := range observations {
		o := &observations[i]
		if !o.HasRequired() || math.IsNaN(*o.Sentiment.Compound) || math.IsInf(*o.Sentiment.Compound, 0) {
			stats.DroppedRows++
			stats.DroppedByTicker[o.Ticker]++
			continue
		}

		key := groupKey{date: o.DayKey(), ticker: o.Ticker}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.add(o, classifier.Classify(*o.Sentiment.Compound))
	}

	rows := make([]*contracts.DailyRow, 0, len(groups))
	for key, g := range groups {
		rows = append(rows, g.row(key))
	}
	sortRows(rows)

	stats.DailyRows = len(rows)
	return rows, stats
}

// Partition splits (Ticker, Date)-sorted rows into one series per ticker
func Partition(rows []*contracts.DailyRow) map[string]*contracts.TickerSeries {
	sorted := make([]*contracts.DailyRow, len(rows))
	copy(sorted, rows)
	sortRows(sorted)

	byTicker := make(map[string][]*contracts.DailyRow)
	for _, r := range sorted {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r)
	}

	series := make(map[string]*contracts.TickerSeries, len(byTicker))
	for ticker, tickerRows := range byTicker {
		series[ticker] = contracts.NewTickerSeries(ticker, tickerRows)
	}
	return series
}

func sortRows(rows []*contracts.DailyRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})
}
