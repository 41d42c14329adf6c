package contracts

import (
	"sort"
	"time"
)

// DailyRow aggregates every observation sharing one (Date, Ticker) key
// ⭐ SSOT: S1 집계 → S2 파생 피처 전달
type DailyRow struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`

	// 평균값 (해당 필드를 가진 행이 없으면 nil)
	SentimentNeg      *float64 `json:"sentiment_neg"`
	SentimentNeu      *float64 `json:"sentiment_neu"`
	SentimentPos      *float64 `json:"sentiment_pos"`
	SentimentCompound *float64 `json:"sentiment_compound"`
	Open              *float64 `json:"open"`
	High              *float64 `json:"high"`
	Low               *float64 `json:"low"`
	Close             *float64 `json:"close"`
	Volume            *float64 `json:"volume"`
	Dividends         *float64 `json:"dividends"`
	Splits            *float64 `json:"splits"`

	MaxSentiment float64 `json:"max_sentiment"`
	MinSentiment float64 `json:"min_sentiment"`

	// 기사 수
	PositiveCount int `json:"positive_count"`
	NegativeCount int `json:"negative_count"`
	NeutralCount  int `json:"neutral_count"`
	TotalCount    int `json:"total_count"`

	Features DerivedFeatures `json:"features"`
}

// LabelCountsConsistent checks pos+neg+neu == total
func (r *DailyRow) LabelCountsConsistent() bool {
	return r.PositiveCount+r.NegativeCount+r.NeutralCount == r.TotalCount
}

// DerivedFeatures are the per-row columns computed over a ticker's history.
// Every field is nil when its look-back is not yet available.
type DerivedFeatures struct {
	PriceChangePct        *float64 `json:"price_change_pct"`
	SentimentChangePct    *float64 `json:"sentiment_change_pct"`
	PriceRollingMean      *float64 `json:"price_rolling_mean"`
	SentimentRollingMean  *float64 `json:"sentiment_rolling_mean"`
	PriceVsRollingPct     *float64 `json:"price_vs_rolling_pct"`
	SentimentVsRollingPct *float64 `json:"sentiment_vs_rolling_pct"`
	PriceDiff             *float64 `json:"price_diff"`

	// NextReturn is the forward target (fraction, t → t+1). Never an input feature.
	NextReturn *float64 `json:"next_return"`
}

// TickerSeries is the date-ordered table of one ticker
type TickerSeries struct {
	Ticker string      `json:"ticker"`
	Rows   []*DailyRow `json:"rows"`

	index map[time.Time]int
}

// NewTickerSeries builds a series from rows already sorted by date.
func NewTickerSeries(ticker string, rows []*DailyRow) *TickerSeries {
	s := &TickerSeries{
		Ticker: ticker,
		Rows:   rows,
		index:  make(map[time.Time]int, len(rows)),
	}
	for i, r := range rows {
		s.index[TruncateDay(r.Date)] = i
	}
	return s
}

// Len returns the number of rows
func (s *TickerSeries) Len() int {
	return len(s.Rows)
}

// IndexOf returns the row index for date
func (s *TickerSeries) IndexOf(date time.Time) (int, bool) {
	day := TruncateDay(date)
	if s.index == nil {
		// JSON 디코딩 등으로 인덱스가 없는 경우 이진 탐색
		i := s.SearchDate(day)
		if i < len(s.Rows) && TruncateDay(s.Rows[i].Date).Equal(day) {
			return i, true
		}
		return 0, false
	}
	i, ok := s.index[day]
	return i, ok
}

// At returns the row for date
func (s *TickerSeries) At(date time.Time) (*DailyRow, bool) {
	i, ok := s.IndexOf(date)
	if !ok {
		return nil, false
	}
	return s.Rows[i], true
}

// SearchDate returns the first index whose date is >= date
func (s *TickerSeries) SearchDate(date time.Time) int {
	return sort.Search(len(s.Rows), func(i int) bool {
		return !s.Rows[i].Date.Before(date)
	})
}

// IsStrictlyIncreasing validates the date order invariant
func (s *TickerSeries) IsStrictlyIncreasing() bool {
	for i := 1; i < len(s.Rows); i++ {
		if !s.Rows[i].Date.After(s.Rows[i-1].Date) {
			return false
		}
	}
	return true
}

// Dates returns the row dates in order
func (s *TickerSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Rows))
	for i, r := range s.Rows {
		dates[i] = r.Date
	}
	return dates
}

// SortedTickers returns the keys of a series map in ascending order
func SortedTickers(series map[string]*TickerSeries) []string {
	tickers := make([]string, 0, len(series))
	for t := range series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
