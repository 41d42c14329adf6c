package experiment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/sentitrade/internal/backtest"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/features"
	"github.com/wonny/sentitrade/internal/walkforward"
)

const dateLayout = "2006-01-02"

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validate checks struct rules then cross-field constraints.
// Every failure is a *contracts.ConfigurationError.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return structError(err)
	}

	// === Universe ===
	if len(cfg.Universe.Tickers) != cfg.Universe.Size {
		return contracts.NewConfigurationError("universe.tickers",
			"has %d tickers, universe size is %d", len(cfg.Universe.Tickers), cfg.Universe.Size)
	}
	seen := make(map[string]struct{}, len(cfg.Universe.Tickers))
	for _, t := range cfg.Universe.Tickers {
		if _, dup := seen[t]; dup {
			return contracts.NewConfigurationError("universe.tickers", "duplicate ticker %s", t)
		}
		seen[t] = struct{}{}
	}

	// === Features ===
	if err := cfg.FeatureOptions().Validate(); err != nil {
		return err
	}

	// === Splits ===
	if _, err := cfg.Splitter(); err != nil {
		return err
	}

	// === Simulation ===
	if _, err := cfg.SimulationConfig(); err != nil {
		return err
	}

	// === Data ===
	from, to, err := cfg.DataRange()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return contracts.NewConfigurationError("data", "from (%s) must be before to (%s)", cfg.Data.From, cfg.Data.To)
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Features.Window != features.DefaultWindow {
		warnings = append(warnings, Warning{
			Code:    "NON_DEFAULT_WINDOW",
			Message: fmt.Sprintf("rolling window %d: 기준 연구는 %d일", cfg.Features.Window, features.DefaultWindow),
		})
	}

	if cfg.Features.SentimentThreshold == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_NEUTRAL_BAND",
			Message: "sentiment_threshold = 0: 0이 아닌 점수는 모두 positive/negative로 분류됨",
		})
	}

	if len(cfg.Splits.Boundaries) == 2 {
		warnings = append(warnings, Warning{
			Code:    "SINGLE_FOLD",
			Message: "폴드 1개: 검증 결과 분산을 추정할 수 없음",
		})
	}

	if cfg.Simulation.MissingPolicy == string(backtest.MissingFlat) {
		warnings = append(warnings, Warning{
			Code:    "FLAT_MISSING_POLICY",
			Message: "누락된 추천/수익률은 수익률 0으로 처리됨",
		})
	}

	return warnings
}

// FeatureOptions builds the feature pipeline options
func (c *Config) FeatureOptions() features.Options {
	return features.Options{
		Window:             c.Features.Window,
		PriceField:         features.PriceField(c.Features.PriceField),
		SentimentThreshold: c.Features.SentimentThreshold,
		Workers:            c.Features.Workers,
		Tickers:            c.Universe.Tickers,
	}
}

// Splitter builds the walk-forward splitter from the calendar
func (c *Config) Splitter() (*walkforward.Splitter, error) {
	cutoff, err := parseDate("splits.test_cutoff", c.Splits.TestCutoff)
	if err != nil {
		return nil, err
	}

	boundaries := make([]time.Time, len(c.Splits.Boundaries))
	for i, s := range c.Splits.Boundaries {
		b, err := parseDate(fmt.Sprintf("splits.boundaries[%d]", i), s)
		if err != nil {
			return nil, err
		}
		boundaries[i] = b
	}

	return walkforward.NewSplitter(cutoff, boundaries)
}

// SimulationConfig builds the portfolio simulation configuration
func (c *Config) SimulationConfig() (backtest.Config, error) {
	policy, err := backtest.ParseMissingPolicy(c.Simulation.MissingPolicy)
	if err != nil {
		return backtest.Config{}, err
	}

	cfg := backtest.Config{
		InitialCapital: decimal.NewFromFloat(c.Simulation.InitialCapital),
		UniverseSize:   c.Universe.Size,
		Tickers:        c.Universe.Tickers,
		MissingPolicy:  policy,
	}
	if err := cfg.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return cfg, nil
}

// DataRange returns the ingestion window; zero times mean unbounded
func (c *Config) DataRange() (from, to time.Time, err error) {
	if c.Data.From != "" {
		if from, err = parseDate("data.from", c.Data.From); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if c.Data.To != "" {
		if to, err = parseDate("data.to", c.Data.To); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, contracts.NewConfigurationError(field, "invalid date %q", s)
	}
	return t, nil
}
