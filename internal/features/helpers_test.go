package features

import (
	"time"

	"github.com/wonny/sentitrade/internal/contracts"
)

func f(v float64) *float64 {
	return &v
}

func date(d int) time.Time {
	return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func obs(ticker string, day int, compound float64, open float64) contracts.Observation {
	return contracts.Observation{
		Date:      date(day),
		Ticker:    ticker,
		Sentiment: contracts.SentimentScores{Compound: f(compound)},
		Open:      f(open),
	}
}

// seriesOf builds a series whose open prices and compound sentiments are given
func seriesOf(ticker string, prices []float64, sentiments []float64) *contracts.TickerSeries {
	rows := make([]*contracts.DailyRow, len(prices))
	for i := range prices {
		rows[i] = &contracts.DailyRow{
			Date:   date(i),
			Ticker: ticker,
			Open:   f(prices[i]),
		}
		if sentiments != nil {
			rows[i].SentimentCompound = f(sentiments[i])
		}
	}
	return contracts.NewTickerSeries(ticker, rows)
}

func linear(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}
