package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/sentitrade/internal/contracts"
)

var (
	two  = decimal.NewFromInt(2)
	half = decimal.New(5, -1)
)

// divPrecision is the number of decimal places kept by the single x/(2K)
// division per day. Sums of stakes are formed before dividing, so a day whose
// exact next value terminates within divPrecision places is reproduced exactly.
const divPrecision = 28

// Contribution is one ticker's share of a simulated day, kept for auditing
type Contribution struct {
	Ticker    string               `json:"ticker"`
	Direction *contracts.Direction `json:"direction,omitempty"`
	Return    *float64             `json:"return,omitempty"`
	Stake     decimal.Decimal      `json:"stake"`
	Value     decimal.Decimal      `json:"value"` // stake * (1 + sign * r)
	NoOp      bool                 `json:"no_op"`
	Reason    string               `json:"reason,omitempty"`
}

// PnL returns Value - Stake
func (c Contribution) PnL() decimal.Decimal {
	return c.Value.Sub(c.Stake)
}

// No-op reasons
const (
	ReasonMissingRecommendation = "missing_recommendation"
	ReasonMissingReturn         = "missing_return"
)

// Stats holds simulation statistics
type Stats struct {
	Days                 int `json:"days"`
	WinningContributions int `json:"winning_contributions"`
	LosingContributions  int `json:"losing_contributions"`
	FlatContributions    int `json:"flat_contributions"`
	NoOpContributions    int `json:"noop_contributions"`
}

// Simulator owns the portfolio value and applies one day at a time
// ⭐ SSOT: 포트폴리오 상태 전이는 여기서만
type Simulator struct {
	cfg      Config
	universe map[string]struct{}
	k        decimal.Decimal

	// Current state
	value    decimal.Decimal
	lastDate time.Time

	stats Stats
}

// NewSimulator validates cfg and creates a simulator at x0
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	universe := make(map[string]struct{}, len(cfg.Tickers))
	for _, t := range cfg.Tickers {
		universe[t] = struct{}{}
	}

	s := &Simulator{
		cfg:      cfg,
		universe: universe,
		k:        decimal.NewFromInt(int64(cfg.UniverseSize)),
	}
	s.Initialize()
	return s, nil
}

// Initialize resets the portfolio to the initial capital
func (s *Simulator) Initialize() {
	s.value = s.cfg.InitialCapital
	s.lastDate = time.Time{}
	s.stats = Stats{}
}

// Equity returns the current portfolio value
func (s *Simulator) Equity() decimal.Decimal {
	return s.value
}

// GetStats returns the running statistics
func (s *Simulator) GetStats() Stats {
	return s.stats
}

// Step advances the portfolio by one day:
//
//	stake_i = x_t / (2K)
//	x_{t+1} = x_t/2 + Σ_i stake_i * (1 + sign_i * r_i)
//
// Every universe ticker receives a stake. On error the state is unchanged.
func (s *Simulator) Step(day contracts.TradingDay) (EquityPoint, error) {
	if day.Date.IsZero() {
		return EquityPoint{}, contracts.NewConfigurationError("simulation.days", "day without date")
	}
	date := contracts.TruncateDay(day.Date)
	if !s.lastDate.IsZero() && !date.After(s.lastDate) {
		return EquityPoint{}, contracts.NewConfigurationError("simulation.days",
			"dates must be strictly increasing: %s after %s", date.Format("2006-01-02"), s.lastDate.Format("2006-01-02"))
	}

	entries, err := s.index(date, day.Entries)
	if err != nil {
		return EquityPoint{}, err
	}

	twoK := two.Mul(s.k)
	stake := s.value.DivRound(twoK, divPrecision)
	carried := s.value.Mul(half) // 곱셈이라 반올림 없음

	// gross_i = x_t * (1 + sign_i * r_i) 는 정확히 계산, 나눗셈은 합산 후 한 번
	gross := decimal.Zero
	contributions := make([]Contribution, 0, len(s.cfg.Tickers))
	for _, ticker := range s.cfg.Tickers {
		c, g, err := s.contribute(date, ticker, entries, stake)
		if err != nil {
			return EquityPoint{}, err
		}
		c.Value = g.DivRound(twoK, divPrecision)
		gross = gross.Add(g)
		contributions = append(contributions, c)
	}

	next := carried.Add(gross.DivRound(twoK, divPrecision))

	point := EquityPoint{
		Date:          date,
		Start:         s.value,
		Equity:        next,
		Carried:       carried,
		Contributions: contributions,
	}
	if !s.value.IsZero() {
		point.Return = next.Div(s.value).Sub(decimal.NewFromInt(1)).InexactFloat64()
	}

	// 상태 반영은 검증이 모두 끝난 뒤에만
	s.value = next
	s.lastDate = date
	s.record(contributions)

	return point, nil
}

// index validates the day's entries against the universe
func (s *Simulator) index(date time.Time, entries []contracts.DayEntry) (map[string]contracts.DayEntry, error) {
	if len(entries) > s.cfg.UniverseSize {
		return nil, contracts.NewConfigurationError("simulation.days",
			"%s has %d entries for a universe of %d", date.Format("2006-01-02"), len(entries), s.cfg.UniverseSize)
	}

	byTicker := make(map[string]contracts.DayEntry, len(entries))
	for _, e := range entries {
		if _, ok := s.universe[e.Ticker]; !ok {
			return nil, contracts.NewConfigurationError("simulation.days",
				"%s: ticker %q is not in the universe", date.Format("2006-01-02"), e.Ticker)
		}
		if _, dup := byTicker[e.Ticker]; dup {
			return nil, contracts.NewConfigurationError("simulation.days",
				"%s: duplicate entry for %s", date.Format("2006-01-02"), e.Ticker)
		}
		if e.Direction != nil && !e.Direction.Valid() {
			return nil, contracts.NewConfigurationError("simulation.days",
				"%s: %s has invalid direction %q", date.Format("2006-01-02"), e.Ticker, *e.Direction)
		}
		byTicker[e.Ticker] = e
	}
	return byTicker, nil
}

// contribute classifies one ticker's entry and returns its gross value
// x_t * (1 + sign * r), i.e. 2K times its end-of-day value.
// Missing inputs follow the configured MissingPolicy.
func (s *Simulator) contribute(date time.Time, ticker string, entries map[string]contracts.DayEntry, stake decimal.Decimal) (Contribution, decimal.Decimal, error) {
	c := Contribution{Ticker: ticker, Stake: stake}

	e, ok := entries[ticker]
	if ok {
		c.Direction = e.Direction
		c.Return = e.Return
	}

	reason := ""
	switch {
	case !ok || e.Direction == nil:
		reason = ReasonMissingRecommendation
	case e.Return == nil || math.IsNaN(*e.Return) || math.IsInf(*e.Return, 0):
		reason = ReasonMissingReturn
	}

	if reason != "" {
		if s.cfg.MissingPolicy == MissingStrict {
			return Contribution{}, decimal.Zero, &contracts.DataQualityError{
				Ticker:  ticker,
				Date:    date,
				Message: fmt.Sprintf("%s under strict policy", reason),
			}
		}
		// flat: r_i = 0 → 지분 그대로 반환
		c.NoOp = true
		c.Reason = reason
		return c, s.value, nil
	}

	sign := decimal.NewFromInt(int64(e.Direction.Sign()))
	r := decimal.NewFromFloat(*e.Return)
	return c, s.value.Mul(decimal.NewFromInt(1).Add(sign.Mul(r))), nil
}

func (s *Simulator) record(contributions []Contribution) {
	s.stats.Days++
	for _, c := range contributions {
		switch {
		case c.NoOp:
			s.stats.NoOpContributions++
		case c.Value.GreaterThan(c.Stake):
			s.stats.WinningContributions++
		case c.Value.LessThan(c.Stake):
			s.stats.LosingContributions++
		default:
			s.stats.FlatContributions++
		}
	}
}
