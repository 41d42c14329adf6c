package backtest

import (
	"sort"
	"time"

	"github.com/wonny/sentitrade/internal/contracts"
)

// BuildTradingDays joins recommendations with the realized forward return
// (NextReturn) of each ticker's series at the recommendation date.
// Days are ordered by date and entries by ticker. A later duplicate
// (date, ticker) recommendation replaces an earlier one. The return is nil
// when the ticker has no series, no row on that date, or no next row.
func BuildTradingDays(recs []contracts.Recommendation, series map[string]*contracts.TickerSeries) []contracts.TradingDay {
	byDay := make(map[time.Time]map[string]contracts.Recommendation)
	for _, r := range recs {
		d := contracts.TruncateDay(r.Date)
		if byDay[d] == nil {
			byDay[d] = make(map[string]contracts.Recommendation)
		}
		byDay[d][r.Ticker] = r
	}

	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	days := make([]contracts.TradingDay, 0, len(dates))
	for _, d := range dates {
		recsOfDay := byDay[d]

		tickers := make([]string, 0, len(recsOfDay))
		for t := range recsOfDay {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)

		entries := make([]contracts.DayEntry, 0, len(tickers))
		for _, t := range tickers {
			dir := recsOfDay[t].Direction
			entries = append(entries, contracts.DayEntry{
				Ticker:    t,
				Direction: &dir,
				Return:    realizedReturn(series[t], d),
			})
		}
		days = append(days, contracts.TradingDay{Date: d, Entries: entries})
	}
	return days
}

func realizedReturn(s *contracts.TickerSeries, date time.Time) *float64 {
	if s == nil {
		return nil
	}
	row, ok := s.At(date)
	if !ok || row.Features.NextReturn == nil {
		return nil
	}
	v := *row.Features.NextReturn
	return &v
}
