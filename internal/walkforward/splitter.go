package walkforward

import (
	"fmt"
	"time"

	"github.com/wonny/sentitrade/internal/contracts"
)

// Splitter produces expanding-window folds and a final hold-out split.
// Boundaries and cutoff are day-truncated (UTC). Row ranges are half-open,
// resolved with a lower-bound search on the series dates.
type Splitter struct {
	cutoff     time.Time
	boundaries []time.Time
}

// NewSplitter validates the calendar and creates a splitter
func NewSplitter(cutoff time.Time, boundaries []time.Time) (*Splitter, error) {
	if cutoff.IsZero() {
		return nil, contracts.NewConfigurationError("splits.test_cutoff", "required")
	}
	if len(boundaries) < 2 {
		return nil, contracts.NewConfigurationError("splits.boundaries", "need at least 2 boundaries for one fold, got %d", len(boundaries))
	}

	cut := contracts.TruncateDay(cutoff)
	days := make([]time.Time, len(boundaries))
	for i, b := range boundaries {
		days[i] = contracts.TruncateDay(b)
		if i > 0 && !days[i].After(days[i-1]) {
			return nil, contracts.NewConfigurationError("splits.boundaries",
				"must be strictly increasing: [%d]=%s after [%d]=%s",
				i, days[i].Format("2006-01-02"), i-1, days[i-1].Format("2006-01-02"))
		}
	}

	// 검증 구간이 테스트 구간을 침범하면 안 됨
	if last := days[len(days)-1]; last.After(cut) {
		return nil, contracts.NewConfigurationError("splits.boundaries",
			"last boundary %s is after test cutoff %s", last.Format("2006-01-02"), cut.Format("2006-01-02"))
	}

	return &Splitter{cutoff: cut, boundaries: days}, nil
}

// Cutoff returns the test cutoff date
func (s *Splitter) Cutoff() time.Time {
	return s.cutoff
}

// Boundaries returns a copy of the fold boundaries
func (s *Splitter) Boundaries() []time.Time {
	out := make([]time.Time, len(s.boundaries))
	copy(out, s.boundaries)
	return out
}

// NumFolds returns N-1 for N boundaries
func (s *Splitter) NumFolds() int {
	return len(s.boundaries) - 1
}

// Folds returns the expanding-window folds of series.
// Fold i trains on dates < b[i] and validates on b[i] <= date < b[i+1].
// A validation window with no rows yields an empty range, not an error.
func (s *Splitter) Folds(series *contracts.TickerSeries) ([]contracts.Fold, error) {
	if series.Len() == 0 {
		return nil, &contracts.DataQualityError{Ticker: series.Ticker, Message: "series has no rows"}
	}

	first := series.SearchDate(s.boundaries[0])
	if first == 0 {
		return nil, contracts.NewConfigurationError("splits.boundaries",
			"%s has no rows before first boundary %s", series.Ticker, s.boundaries[0].Format("2006-01-02"))
	}

	folds := make([]contracts.Fold, 0, s.NumFolds())
	for i := 0; i < s.NumFolds(); i++ {
		from, to := s.boundaries[i], s.boundaries[i+1]
		trainEnd := series.SearchDate(from)
		folds = append(folds, contracts.Fold{
			Number:          i + 1,
			TrainEnd:        trainEnd,
			ValidationStart: trainEnd,
			ValidationEnd:   series.SearchDate(to),
			From:            from,
			To:              to,
		})
	}
	return folds, nil
}

// TestSplit returns train = rows before the cutoff, test = the remaining rows
func (s *Splitter) TestSplit(series *contracts.TickerSeries) contracts.TestSplit {
	return contracts.TestSplit{
		Cutoff:   s.cutoff,
		TrainEnd: series.SearchDate(s.cutoff),
		TestEnd:  series.Len(),
	}
}

// Plan returns folds and hold-out split of one series
func (s *Splitter) Plan(series *contracts.TickerSeries) (contracts.SplitPlan, error) {
	folds, err := s.Folds(series)
	if err != nil {
		return contracts.SplitPlan{}, err
	}
	return contracts.SplitPlan{
		Ticker: series.Ticker,
		Folds:  folds,
		Test:   s.TestSplit(series),
	}, nil
}

// SplitAll plans every series in ticker order. Any ticker failing the
// calendar check fails the whole call since the calendar is shared.
func (s *Splitter) SplitAll(series map[string]*contracts.TickerSeries) ([]contracts.SplitPlan, error) {
	plans := make([]contracts.SplitPlan, 0, len(series))
	for _, ticker := range contracts.SortedTickers(series) {
		plan, err := s.Plan(series[ticker])
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", ticker, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Rows returns series rows in [lo, hi), clamped to the series bounds
func Rows(series *contracts.TickerSeries, lo, hi int) []*contracts.DailyRow {
	if lo < 0 {
		lo = 0
	}
	if hi > series.Len() {
		hi = series.Len()
	}
	if lo >= hi {
		return nil
	}
	return series.Rows[lo:hi]
}

// Train returns the training rows of fold
func Train(series *contracts.TickerSeries, fold contracts.Fold) []*contracts.DailyRow {
	return Rows(series, 0, fold.TrainEnd)
}

// Validation returns the validation rows of fold
func Validation(series *contracts.TickerSeries, fold contracts.Fold) []*contracts.DailyRow {
	return Rows(series, fold.ValidationStart, fold.ValidationEnd)
}
