package contracts

import "time"

// Observation is one article-level row joined with the day's price record
// ⭐ SSOT: 원천 데이터 → 피처 파이프라인 전달 단위
type Observation struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`

	Sentiment SentimentScores `json:"sentiment"`

	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
	Dividends *float64 `json:"dividends"`
	Splits    *float64 `json:"splits"`
}

// SentimentScores holds the lexicon scores of one article
// Compound is the required score; rows without it are dropped before aggregation.
type SentimentScores struct {
	Neg      *float64 `json:"neg"`
	Neu      *float64 `json:"neu"`
	Pos      *float64 `json:"pos"`
	Compound *float64 `json:"compound"`
}

// HasRequired reports whether the row can take part in aggregation
func (o *Observation) HasRequired() bool {
	return o.Ticker != "" && !o.Date.IsZero() && o.Sentiment.Compound != nil
}

// DayKey normalises the observation date to UTC midnight
func (o *Observation) DayKey() time.Time {
	return TruncateDay(o.Date)
}

// TruncateDay drops the time-of-day part of t (UTC)
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SentimentLabel is the categorical sentiment of one article
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
