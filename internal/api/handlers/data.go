package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/sentitrade/internal/brain"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/features"
	"github.com/wonny/sentitrade/pkg/logger"
)

// DataHandler serves the feature series and splits of the last pipeline run
// ⭐ SSOT: 피처/폴드 조회 API 핸들러는 이 구조체에서만
type DataHandler struct {
	mu         sync.RWMutex
	result     *brain.RunResult
	priceField features.PriceField
	logger     *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(priceField features.PriceField, log *logger.Logger) *DataHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &DataHandler{
		priceField: priceField,
		logger:     log,
	}
}

// SetResult replaces the served run result
func (h *DataHandler) SetResult(result *brain.RunResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result = result
}

func (h *DataHandler) current() *brain.RunResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.result
}

// TickerItem summarises one ticker's series
type TickerItem struct {
	Ticker string    `json:"ticker"`
	Rows   int       `json:"rows"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// TickersResponse lists processed and skipped tickers
type TickersResponse struct {
	RunID   string             `json:"run_id"`
	Tickers []TickerItem       `json:"tickers"`
	Skipped []features.Skipped `json:"skipped"`
}

// GetTickers returns every processed ticker with its row count
// GET /api/tickers
func (h *DataHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	result, ok := h.ready(w)
	if !ok {
		return
	}

	resp := TickersResponse{
		RunID:   result.RunID,
		Tickers: make([]TickerItem, 0, len(result.Features.Series)),
		Skipped: result.Features.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []features.Skipped{}
	}

	for _, ticker := range contracts.SortedTickers(result.Features.Series) {
		s := result.Features.Series[ticker]
		item := TickerItem{Ticker: ticker, Rows: s.Len()}
		if s.Len() > 0 {
			item.From = s.Rows[0].Date
			item.To = s.Rows[s.Len()-1].Date
		}
		resp.Tickers = append(resp.Tickers, item)
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetFeatures returns the full feature series of a ticker
// GET /api/features/{ticker}
func (h *DataHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetFolds returns the walk-forward folds and hold-out split of a ticker
// GET /api/folds/{ticker}
func (h *DataHandler) GetFolds(w http.ResponseWriter, r *http.Request) {
	result, ok := h.ready(w)
	if !ok {
		return
	}

	ticker := mux.Vars(r)["ticker"]
	for _, plan := range result.Plans {
		if plan.Ticker == ticker {
			respondJSON(w, http.StatusOK, plan)
			return
		}
	}
	respondError(w, http.StatusNotFound, "no split plan for ticker "+ticker)
}

// GetDiagnostics returns column summaries and the correlation matrix of a ticker
// GET /api/diagnostics/{ticker}
func (h *DataHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, features.Diagnose(series, h.priceField))
}

// GetQuality returns the quality snapshot of the last run
// GET /api/quality
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	result, ok := h.ready(w)
	if !ok {
		return
	}
	if result.Quality == nil {
		respondError(w, http.StatusNotFound, "no quality snapshot")
		return
	}
	respondJSON(w, http.StatusOK, result.Quality)
}

func (h *DataHandler) ready(w http.ResponseWriter) (*brain.RunResult, bool) {
	result := h.current()
	if result == nil || result.Features == nil {
		respondError(w, http.StatusServiceUnavailable, "pipeline result not available")
		return nil, false
	}
	return result, true
}

func (h *DataHandler) series(w http.ResponseWriter, r *http.Request) (*contracts.TickerSeries, bool) {
	result, ok := h.ready(w)
	if !ok {
		return nil, false
	}

	ticker := mux.Vars(r)["ticker"]
	s, found := result.Features.Series[ticker]
	if !found {
		respondError(w, http.StatusNotFound, "unknown ticker "+ticker)
		return nil, false
	}
	return s, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
