package features

import (
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/stats"
)

// column extracts one numeric value of a row for diagnostics
type column struct {
	name  string
	value func(r *contracts.DailyRow) *float64
}

func diagnosticColumns(field PriceField) []column {
	return []column{
		{"price", field.price},
		{"sentiment", func(r *contracts.DailyRow) *float64 { return r.SentimentCompound }},
		{"total_count", func(r *contracts.DailyRow) *float64 { return contracts.Float(float64(r.TotalCount)) }},
		{"price_change_pct", func(r *contracts.DailyRow) *float64 { return r.Features.PriceChangePct }},
		{"sentiment_change_pct", func(r *contracts.DailyRow) *float64 { return r.Features.SentimentChangePct }},
		{"price_vs_rolling_pct", func(r *contracts.DailyRow) *float64 { return r.Features.PriceVsRollingPct }},
		{"sentiment_vs_rolling_pct", func(r *contracts.DailyRow) *float64 { return r.Features.SentimentVsRollingPct }},
		{"next_return", func(r *contracts.DailyRow) *float64 { return r.Features.NextReturn }},
	}
}

// ColumnSummary describes one column of a ticker's series
type ColumnSummary struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`   // finite values
	Missing int      `json:"missing"` // nil or non-finite
	Mean    *float64 `json:"mean"`
	StdDev  *float64 `json:"std_dev"`

	// 98.5% band for scatter axes; nil with fewer than 2 values
	TrimLower *float64 `json:"trim_lower"`
	TrimUpper *float64 `json:"trim_upper"`
}

// Diagnostics is the per-ticker summary consumed by plotting tools
type Diagnostics struct {
	Ticker      string          `json:"ticker"`
	Rows        int             `json:"rows"`
	Columns     []ColumnSummary `json:"columns"`
	Correlation [][]*float64    `json:"correlation"` // pairwise-complete Pearson, Columns order
}

// Diagnose summarises every diagnostic column of s. Non-finite values are
// excluded from all statistics.
func Diagnose(s *contracts.TickerSeries, field PriceField) *Diagnostics {
	cols := diagnosticColumns(field)

	values := make([][]*float64, len(cols))
	for c, col := range cols {
		values[c] = make([]*float64, s.Len())
		for i, r := range s.Rows {
			values[c][i] = col.value(r)
		}
	}

	d := &Diagnostics{
		Ticker:      s.Ticker,
		Rows:        s.Len(),
		Columns:     make([]ColumnSummary, len(cols)),
		Correlation: make([][]*float64, len(cols)),
	}

	for c, col := range cols {
		finiteValues := stats.FiniteFromPtrs(values[c])
		summary := ColumnSummary{
			Name:    col.name,
			Count:   len(finiteValues),
			Missing: s.Len() - len(finiteValues),
		}
		if len(finiteValues) > 0 {
			summary.Mean = contracts.Float(stats.Mean(finiteValues))
			summary.StdDev = contracts.Float(stats.StdDev(finiteValues))
		}
		if lo, hi, ok := stats.TrimBounds(finiteValues); ok {
			summary.TrimLower = contracts.Float(lo)
			summary.TrimUpper = contracts.Float(hi)
		}
		d.Columns[c] = summary
	}

	for a := range cols {
		d.Correlation[a] = make([]*float64, len(cols))
		for b := range cols {
			if r, ok := stats.Pearson(values[a], values[b]); ok {
				d.Correlation[a][b] = contracts.Float(r)
			}
		}
	}

	return d
}

// ColumnNames lists the diagnostic columns in output order
func ColumnNames() []string {
	cols := diagnosticColumns(PriceOpen)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}
