package sentiment

import (
	"math"

	"github.com/wonny/sentitrade/internal/contracts"
)

// DefaultThreshold is the magnitude a compound score must exceed to leave neutral
const DefaultThreshold = 0.1

// Classifier maps a compound sentiment score to a label
// ⭐ SSOT: 기사 감성 라벨링은 여기서만
type Classifier struct {
	threshold float64
	set       bool // false: zero value, DefaultThreshold 사용
}

// NewClassifier creates a classifier with a symmetric threshold.
// 0 is valid (every non-zero score is positive or negative); a negative or
// non-finite threshold falls back to DefaultThreshold.
func NewClassifier(threshold float64) Classifier {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultThreshold
	}
	return Classifier{threshold: threshold, set: true}
}

// Threshold returns the configured threshold
func (c Classifier) Threshold() float64 {
	if !c.set {
		return DefaultThreshold
	}
	return c.threshold
}

// Classify labels score. Exactly ±threshold is neutral, and so is NaN.
func (c Classifier) Classify(score float64) contracts.SentimentLabel {
	t := c.Threshold()
	switch {
	case score > t:
		return contracts.SentimentPositive
	case score < -t:
		return contracts.SentimentNegative
	default:
		return contracts.SentimentNeutral
	}
}

// Classify labels score with DefaultThreshold
func Classify(score float64) contracts.SentimentLabel {
	return NewClassifier(DefaultThreshold).Classify(score)
}
