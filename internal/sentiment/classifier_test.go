package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/sentitrade/internal/contracts"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  contracts.SentimentLabel
	}{
		{"strong positive", 0.85, contracts.SentimentPositive},
		{"just above threshold", 0.1000001, contracts.SentimentPositive},
		{"exactly positive threshold", 0.1, contracts.SentimentNeutral},
		{"zero", 0, contracts.SentimentNeutral},
		{"exactly negative threshold", -0.1, contracts.SentimentNeutral},
		{"just below negative threshold", -0.1000001, contracts.SentimentNegative},
		{"strong negative", -0.9, contracts.SentimentNegative},
		{"positive infinity", math.Inf(1), contracts.SentimentPositive},
		{"negative infinity", math.Inf(-1), contracts.SentimentNegative},
		{"NaN", math.NaN(), contracts.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.score))
		})
	}
}

func TestNewClassifier(t *testing.T) {
	c := NewClassifier(0.3)
	assert.Equal(t, 0.3, c.Threshold())
	assert.Equal(t, contracts.SentimentNeutral, c.Classify(0.2))
	assert.Equal(t, contracts.SentimentPositive, c.Classify(0.31))

	// 음수/비유한 임계값은 기본값 사용
	for _, bad := range []float64{-0.2, math.NaN(), math.Inf(1)} {
		assert.Equal(t, DefaultThreshold, NewClassifier(bad).Threshold())
	}

	// 0: 중립 구간 없음, 정확히 0만 neutral
	noBand := NewClassifier(0)
	assert.Equal(t, 0.0, noBand.Threshold())
	assert.Equal(t, contracts.SentimentPositive, noBand.Classify(0.05))
	assert.Equal(t, contracts.SentimentNegative, noBand.Classify(-0.01))
	assert.Equal(t, contracts.SentimentNeutral, noBand.Classify(0))

	var zero Classifier
	assert.Equal(t, contracts.SentimentNegative, zero.Classify(-0.5))
}
