package backtest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/stats"
	"github.com/wonny/sentitrade/pkg/logger"
	"github.com/wonny/sentitrade/pkg/metrics"
)

// MissingPolicy decides what a universe ticker contributes when its
// recommendation or realized return is missing for a day
type MissingPolicy string

const (
	// MissingFlat contributes exactly the stake (r = 0)
	MissingFlat MissingPolicy = "flat"
	// MissingStrict fails the simulation with a DataQualityError
	MissingStrict MissingPolicy = "strict"
)

// ParseMissingPolicy parses flat/strict (empty means flat)
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingFlat:
		return MissingFlat, nil
	case MissingStrict:
		return MissingStrict, nil
	default:
		return "", contracts.NewConfigurationError("simulation.missing_policy", "unknown policy %q", s)
	}
}

// Config holds simulation configuration
type Config struct {
	InitialCapital decimal.Decimal `json:"initial_capital"` // x0 > 0
	UniverseSize   int             `json:"universe_size"`   // K
	Tickers        []string        `json:"tickers"`         // len == K
	MissingPolicy  MissingPolicy   `json:"missing_policy"`
}

func (c Config) withDefaults() Config {
	if c.MissingPolicy == "" {
		c.MissingPolicy = MissingFlat
	}
	return c
}

// Validate checks the portfolio parameters
func (c Config) Validate() error {
	if !c.InitialCapital.IsPositive() {
		return contracts.NewConfigurationError("simulation.initial_capital", "must be > 0, got %s", c.InitialCapital)
	}
	if c.UniverseSize <= 0 {
		return contracts.NewConfigurationError("universe.size", "must be > 0, got %d", c.UniverseSize)
	}
	if len(c.Tickers) != c.UniverseSize {
		return contracts.NewConfigurationError("universe.tickers", "has %d tickers, universe size is %d", len(c.Tickers), c.UniverseSize)
	}

	seen := make(map[string]struct{}, len(c.Tickers))
	for _, t := range c.Tickers {
		if t == "" {
			return contracts.NewConfigurationError("universe.tickers", "empty ticker")
		}
		if _, dup := seen[t]; dup {
			return contracts.NewConfigurationError("universe.tickers", "duplicate ticker %s", t)
		}
		seen[t] = struct{}{}
	}

	switch c.MissingPolicy {
	case MissingFlat, MissingStrict:
	default:
		return contracts.NewConfigurationError("simulation.missing_policy", "unknown policy %q", c.MissingPolicy)
	}
	return nil
}

// Result holds simulation results
type Result struct {
	Config    Config        `json:"config"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Duration  time.Duration `json:"duration"`

	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalCapital   decimal.Decimal `json:"final_capital"`
	Multiple       decimal.Decimal `json:"multiple"` // x_T / x_0

	// Performance metrics (diagnostics)
	TotalReturn float64 `json:"total_return"`
	Volatility  float64 `json:"volatility"` // daily, population stddev
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
	VaR95       float64 `json:"var_95"`  // historical daily VaR, positive loss
	CVaR95      float64 `json:"cvar_95"` // expected shortfall beyond VaR95

	Stats Stats `json:"stats"`

	// Equity trajectory, one point per simulated day
	EquityCurve []EquityPoint `json:"equity_curve"`
}

// EquityPoint is the portfolio after one simulated day
type EquityPoint struct {
	Date          time.Time       `json:"date"`
	Start         decimal.Decimal `json:"start"`
	Equity        decimal.Decimal `json:"equity"`
	Carried       decimal.Decimal `json:"carried"` // x_t / 2
	Return        float64         `json:"return"`
	Contributions []Contribution  `json:"contributions"`
}

// Engine runs portfolio simulations. It holds no per-run state, so one
// engine may serve concurrent runs.
// ⭐ SSOT: 시뮬레이션 실행은 여기서만
type Engine struct {
	logger  *logger.Logger
	metrics *metrics.Recorder
}

// NewEngine creates a new simulation engine. rec may be nil.
func NewEngine(log *logger.Logger, rec *metrics.Recorder) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		logger:  log.WithStage("simulate"),
		metrics: rec,
	}
}

// Run simulates days in order. If ctx is cancelled between days the result
// so far is returned together with ctx.Err().
func (e *Engine) Run(ctx context.Context, cfg Config, days []contracts.TradingDay) (*Result, error) {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	cfg = sim.cfg

	e.logger.WithFields(map[string]interface{}{
		"initial_capital": cfg.InitialCapital.String(),
		"universe_size":   cfg.UniverseSize,
		"days":            len(days),
		"missing_policy":  string(cfg.MissingPolicy),
	}).Info("Starting simulation")

	startTime := time.Now()
	defer e.metrics.ObserveStage("simulate", startTime)

	result := &Result{
		Config:         cfg,
		InitialCapital: cfg.InitialCapital,
		EquityCurve:    make([]EquityPoint, 0, len(days)),
	}

	var runErr error
	for i, day := range days {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		point, err := sim.Step(day)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}
		result.EquityCurve = append(result.EquityCurve, point)
	}

	result.Duration = time.Since(startTime)
	result.FinalCapital = sim.Equity()
	result.Stats = sim.GetStats()
	e.calculateMetrics(result)

	multiple := result.Multiple.InexactFloat64()
	e.metrics.RecordSimulation(multiple, result.Stats.NoOpContributions)

	log := e.logger.WithFields(map[string]interface{}{
		"duration":     result.Duration.Seconds(),
		"days":         result.Stats.Days,
		"multiple":     result.Multiple.StringFixed(6),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.MaxDrawdown*100),
		"no_ops":       result.Stats.NoOpContributions,
	})
	if runErr != nil {
		log.WithError(runErr).Warn("Simulation interrupted")
		return result, runErr
	}
	log.Info("Simulation completed")

	return result, nil
}

// calculateMetrics derives summary metrics from the equity curve
func (e *Engine) calculateMetrics(result *Result) {
	result.Multiple = result.FinalCapital.Div(result.InitialCapital)
	result.TotalReturn = result.Multiple.Sub(decimal.NewFromInt(1)).InexactFloat64()

	if len(result.EquityCurve) == 0 {
		return
	}
	result.StartDate = result.EquityCurve[0].Date
	result.EndDate = result.EquityCurve[len(result.EquityCurve)-1].Date

	curve := make([]float64, 0, len(result.EquityCurve)+1)
	curve = append(curve, result.InitialCapital.InexactFloat64())
	dailyReturns := make([]float64, 0, len(result.EquityCurve))
	for _, p := range result.EquityCurve {
		curve = append(curve, p.Equity.InexactFloat64())
		dailyReturns = append(dailyReturns, p.Return)
	}

	result.Volatility = stats.StdDev(dailyReturns)
	result.MaxDrawdown = stats.MaxDrawdown(curve)
	result.VaR95, result.CVaR95, _ = stats.HistoricalVaR(dailyReturns, 0.95)

	decided := result.Stats.WinningContributions + result.Stats.LosingContributions
	if decided > 0 {
		result.WinRate = float64(result.Stats.WinningContributions) / float64(decided)
	}
}
