package features

import (
	"math"

	"github.com/wonny/sentitrade/internal/contracts"
)

// Derive fills DerivedFeatures of every row of s in place.
// Each row only reads rows at or before itself, except NextReturn which is the
// forward target. The rolling baseline of row t is the mean through row t-1.
func Derive(s *contracts.TickerSeries, window int, field PriceField) error {
	if window <= 0 {
		return contracts.NewConfigurationError("features.window", "must be > 0, got %d", window)
	}

	n := s.Len()
	prices := make([]*float64, n)
	sentiments := make([]*float64, n)
	for i, r := range s.Rows {
		prices[i] = field.price(r)
		sentiments[i] = r.SentimentCompound
	}

	priceRolling := rollingMeans(prices, window)
	sentimentRolling := rollingMeans(sentiments, window)

	for i, r := range s.Rows {
		f := contracts.DerivedFeatures{
			PriceRollingMean:     priceRolling[i],
			SentimentRollingMean: sentimentRolling[i],
		}

		if i > 0 {
			f.PriceChangePct = percentChange(prices[i-1], prices[i])
			f.SentimentChangePct = percentChange(sentiments[i-1], sentiments[i])
			f.PriceDiff = difference(prices[i-1], prices[i])

			// shift(1): 직전 행까지의 이동평균과 비교
			f.PriceVsRollingPct = percentChange(priceRolling[i-1], prices[i])
			f.SentimentVsRollingPct = percentChange(sentimentRolling[i-1], sentiments[i])
		}

		if i < n-1 {
			f.NextReturn = fractionalChange(prices[i], prices[i+1])
		}

		r.Features = f
	}

	return nil
}

// rollingMeans returns the right-aligned trailing mean of each position.
// A position is nil unless all window values ending there are present.
func rollingMeans(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		complete := true
		for j := i - window + 1; j <= i; j++ {
			if values[j] == nil {
				complete = false
				break
			}
			sum += *values[j]
		}
		if complete {
			out[i] = finite(sum / float64(window))
		}
	}
	return out
}

// percentChange is (cur-base)/base*100, nil on a nil or zero base
func percentChange(base, cur *float64) *float64 {
	v := fractionalChange(base, cur)
	if v == nil {
		return nil
	}
	return finite(*v * 100)
}

func fractionalChange(base, cur *float64) *float64 {
	if base == nil || cur == nil || *base == 0 {
		return nil
	}
	return finite((*cur - *base) / *base)
}

func difference(prev, cur *float64) *float64 {
	if prev == nil || cur == nil {
		return nil
	}
	return finite(*cur - *prev)
}

// finite maps NaN/±Inf to nil so they never reach downstream statistics
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
