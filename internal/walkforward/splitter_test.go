package walkforward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentitrade/internal/contracts"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2022, m, d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds one row per calendar day from Jan 1 for n days
func dailySeries(ticker string, n int) *contracts.TickerSeries {
	rows := make([]*contracts.DailyRow, n)
	for i := range rows {
		rows[i] = &contracts.DailyRow{Ticker: ticker, Date: day(1, 1).AddDate(0, 0, i)}
	}
	return contracts.NewTickerSeries(ticker, rows)
}

func TestNewSplitter_Validation(t *testing.T) {
	tests := []struct {
		name       string
		cutoff     time.Time
		boundaries []time.Time
		wantErr    bool
	}{
		{"valid", day(3, 1), []time.Time{day(1, 10), day(1, 20), day(2, 1)}, false},
		{"boundary equals cutoff", day(2, 1), []time.Time{day(1, 10), day(2, 1)}, false},
		{"missing cutoff", time.Time{}, []time.Time{day(1, 10), day(1, 20)}, true},
		{"single boundary", day(3, 1), []time.Time{day(1, 10)}, true},
		{"equal boundaries", day(3, 1), []time.Time{day(1, 10), day(1, 10)}, true},
		{"decreasing boundaries", day(3, 1), []time.Time{day(1, 20), day(1, 10)}, true},
		{"boundary after cutoff", day(1, 15), []time.Time{day(1, 10), day(1, 20)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.cutoff, tt.boundaries)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, contracts.IsConfigurationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSplitter_Folds(t *testing.T) {
	s, err := NewSplitter(day(2, 1), []time.Time{day(1, 11), day(1, 16), day(1, 21), day(1, 31)})
	require.NoError(t, err)

	series := dailySeries("AAPL", 45)
	folds, err := s.Folds(series)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	assert.Equal(t, 10, folds[0].TrainSize())
	assert.Equal(t, 5, folds[0].ValidationSize())
	assert.Equal(t, 15, folds[1].TrainSize())
	assert.Equal(t, 20, folds[2].TrainSize())
	assert.Equal(t, 10, folds[2].ValidationSize())

	for i, fold := range folds {
		assert.Equal(t, i+1, fold.Number)

		train := Train(series, fold)
		val := Validation(series, fold)
		require.NotEmpty(t, train)
		require.NotEmpty(t, val)

		// max(train date) < min(validation date)
		assert.True(t, train[len(train)-1].Date.Before(val[0].Date))
		assert.False(t, val[0].Date.Before(fold.From))
		assert.True(t, val[len(val)-1].Date.Before(fold.To))

		// train_i ⊆ train_{i+1}
		if i+1 < len(folds) {
			next := Train(series, folds[i+1])
			assert.Equal(t, train, next[:len(train)])
		}
	}
}

func TestSplitter_FoldsRequireHistory(t *testing.T) {
	s, err := NewSplitter(day(2, 1), []time.Time{day(1, 1), day(1, 10)})
	require.NoError(t, err)

	_, err = s.Folds(dailySeries("AAPL", 30))
	require.Error(t, err)
	assert.True(t, contracts.IsConfigurationError(err))
}

func TestSplitter_EmptyValidationWindow(t *testing.T) {
	s, err := NewSplitter(day(3, 1), []time.Time{day(1, 5), day(2, 10), day(2, 20)})
	require.NoError(t, err)

	folds, err := s.Folds(dailySeries("AAPL", 20))
	require.NoError(t, err)
	require.Len(t, folds, 2)

	assert.Equal(t, 16, folds[0].ValidationSize())
	assert.Equal(t, 0, folds[1].ValidationSize())
	assert.Empty(t, Validation(dailySeries("AAPL", 20), folds[1]))
}

func TestSplitter_TestSplit(t *testing.T) {
	s, err := NewSplitter(day(1, 21), []time.Time{day(1, 5), day(1, 10)})
	require.NoError(t, err)

	split := s.TestSplit(dailySeries("AAPL", 30))
	assert.Equal(t, 20, split.TrainEnd)
	assert.Equal(t, 30, split.TestEnd)
	assert.Equal(t, 10, split.TestSize())

	// 컷오프 이전 데이터만 있는 경우 테스트 구간이 비어 있음
	short := s.TestSplit(dailySeries("MSFT", 10))
	assert.Equal(t, 10, short.TrainEnd)
	assert.Equal(t, 0, short.TestSize())
}

func TestSplitter_SplitAll(t *testing.T) {
	s, err := NewSplitter(day(1, 25), []time.Time{day(1, 5), day(1, 15), day(1, 25)})
	require.NoError(t, err)

	plans, err := s.SplitAll(map[string]*contracts.TickerSeries{
		"TSLA": dailySeries("TSLA", 30),
		"AAPL": dailySeries("AAPL", 30),
	})
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "AAPL", plans[0].Ticker)
	assert.Equal(t, "TSLA", plans[1].Ticker)
	assert.Len(t, plans[0].Folds, 2)
	assert.Equal(t, 24, plans[0].Test.TrainEnd)

	late := contracts.NewTickerSeries("LATE", []*contracts.DailyRow{{Ticker: "LATE", Date: day(1, 20)}})
	_, err = s.SplitAll(map[string]*contracts.TickerSeries{"AAPL": dailySeries("AAPL", 30), "LATE": late})
	require.Error(t, err)
	assert.True(t, contracts.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "LATE")
}

func TestRows_Clamps(t *testing.T) {
	series := dailySeries("AAPL", 5)
	assert.Len(t, Rows(series, -3, 2), 2)
	assert.Len(t, Rows(series, 3, 99), 2)
	assert.Nil(t, Rows(series, 4, 4))
}
