package quality

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/sentitrade/internal/contracts"
)

// Config holds quality gate thresholds (coverage in [0, 1])
type Config struct {
	MinSentimentCoverage float64 `yaml:"min_sentiment_coverage" json:"min_sentiment_coverage"` // 0.95
	MinPriceCoverage     float64 `yaml:"min_price_coverage" json:"min_price_coverage"`         // 0.95
	MinVolumeCoverage    float64 `yaml:"min_volume_coverage" json:"min_volume_coverage"`       // 0.80
}

// DefaultConfig returns the thresholds used by the CLI
func DefaultConfig() Config {
	return Config{
		MinSentimentCoverage: 0.95,
		MinPriceCoverage:     0.95,
		MinVolumeCoverage:    0.80,
	}
}

// Snapshot is the ingestion quality of one observation batch
type Snapshot struct {
	TotalRows    int                `json:"total_rows"`
	Tickers      int                `json:"tickers"`
	Coverage     map[string]float64 `json:"coverage"`
	TickerCover  map[string]float64 `json:"ticker_sentiment_coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Failures     []string           `json:"failures,omitempty"`
}

// Gate validates observation coverage before feature engineering.
// A failing gate is reported, not fatal: rows without sentiment are dropped
// downstream regardless.
type Gate struct {
	config Config
}

// NewGate creates a new quality gate
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check computes field coverage over observations
// ⭐ SSOT: S0 → 피처 엔지니어링 품질 검증
func (g *Gate) Check(observations []contracts.Observation) *Snapshot {
	snapshot := &Snapshot{
		TotalRows:   len(observations),
		Coverage:    make(map[string]float64),
		TickerCover: make(map[string]float64),
	}
	if len(observations) == 0 {
		snapshot.Failures = []string{"no observations"}
		return snapshot
	}

	var sentiment, price, volume int
	perTicker := make(map[string][2]int) // {with sentiment, total}
	for i := range observations {
		o := &observations[i]
		c := perTicker[o.Ticker]
		c[1]++
		if present(o.Sentiment.Compound) {
			sentiment++
			c[0]++
		}
		if present(o.Open) || present(o.Close) {
			price++
		}
		if present(o.Volume) && *o.Volume > 0 {
			volume++
		}
		perTicker[o.Ticker] = c
	}

	total := float64(len(observations))
	snapshot.Coverage["sentiment"] = float64(sentiment) / total
	snapshot.Coverage["price"] = float64(price) / total
	snapshot.Coverage["volume"] = float64(volume) / total

	for ticker, c := range perTicker {
		snapshot.TickerCover[ticker] = float64(c[0]) / float64(c[1])
	}
	snapshot.Tickers = len(perTicker)

	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)
	snapshot.Failures = g.failures(snapshot)
	snapshot.Passed = len(snapshot.Failures) == 0
	return snapshot
}

// calculateScore calculates overall quality score using weighted average
func (g *Gate) calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		"sentiment": 0.50, // 감성 점수 필수
		"price":     0.35, // 가격 데이터 필수
		"volume":    0.15,
	}

	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}

func (g *Gate) failures(s *Snapshot) []string {
	var out []string
	check := func(key string, min float64) {
		if s.Coverage[key] < min {
			out = append(out, fmt.Sprintf("%s coverage %.3f < %.3f", key, s.Coverage[key], min))
		}
	}
	check("sentiment", g.config.MinSentimentCoverage)
	check("price", g.config.MinPriceCoverage)
	check("volume", g.config.MinVolumeCoverage)

	// 감성 점수가 전혀 없는 종목은 피처 단계에서 제외됨
	var empty []string
	for ticker, cov := range s.TickerCover {
		if cov == 0 {
			empty = append(empty, ticker)
		}
	}
	sort.Strings(empty)
	for _, ticker := range empty {
		out = append(out, fmt.Sprintf("%s has no sentiment scores", ticker))
	}
	return out
}

func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
