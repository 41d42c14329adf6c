package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wonny/sentitrade/internal/backtest"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/pkg/logger"
)

// maxSimulateBody caps the request body (1 MiB)
const maxSimulateBody = 1 << 20

// SimulationHandler runs portfolio simulations on request
// ⭐ SSOT: 시뮬레이션 API 핸들러는 여기서만
type SimulationHandler struct {
	engine   *backtest.Engine
	defaults backtest.Config
	logger   *logger.Logger
}

// NewSimulationHandler creates a handler whose universe and capital default to cfg
func NewSimulationHandler(engine *backtest.Engine, cfg backtest.Config, log *logger.Logger) *SimulationHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SimulationHandler{
		engine:   engine,
		defaults: cfg,
		logger:   log,
	}
}

// SimulateRequest is the POST /api/simulate body.
// Omitted fields fall back to the experiment configuration.
type SimulateRequest struct {
	InitialCapital *decimal.Decimal       `json:"initial_capital,omitempty"`
	Tickers        []string               `json:"tickers,omitempty"`
	MissingPolicy  string                 `json:"missing_policy,omitempty"`
	Days           []contracts.TradingDay `json:"days"`
}

// Simulate runs the portfolio over the posted trading days
// POST /api/simulate
func (h *SimulationHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSimulateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := h.config(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Run(r.Context(), cfg, req.Days)
	if err != nil {
		switch {
		case contracts.IsConfigurationError(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case contracts.IsDataQualityError(err):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.WithError(err).Error("Simulation failed")
			respondError(w, http.StatusInternalServerError, "simulation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *SimulationHandler) config(req SimulateRequest) (backtest.Config, error) {
	cfg := h.defaults
	cfg.Tickers = append([]string(nil), h.defaults.Tickers...)

	if req.InitialCapital != nil {
		cfg.InitialCapital = *req.InitialCapital
	}
	if len(req.Tickers) > 0 {
		cfg.Tickers = req.Tickers
		cfg.UniverseSize = len(req.Tickers)
	}
	if req.MissingPolicy != "" {
		policy, err := backtest.ParseMissingPolicy(req.MissingPolicy)
		if err != nil {
			return backtest.Config{}, err
		}
		cfg.MissingPolicy = policy
	}
	return cfg, nil
}
