package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/selection"
	"github.com/wonny/screener/pkg/logger"
)

// Screener is the engine surface the HTTP layer needs
type Screener interface {
	Run(ctx context.Context, name string, p selection.Params) (*contracts.ScreenResult, error)
	ScreenNames() []string
}

// ScreenItem is one record of a /screen response
type ScreenItem struct {
	ID     string  `json:"id"`
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Price  int64   `json:"price"`
	Change float64 `json:"change"` // 스크린 지표 (등락률, 거래량 증가율, 변동성 등)
	Volume int64   `json:"volume"`
	Value  int64   `json:"value"`
}

// ScreenHandler handles screen and market summary endpoints
// ⭐ SSOT: 스크린 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener Screener
	indexes  contracts.IndexProvider
	defaults selection.Params
	allowed  map[string]bool
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(screener Screener, indexes contracts.IndexProvider, defaults selection.Params, log *logger.Logger) *ScreenHandler {
	allowed := make(map[string]bool)
	for _, name := range screener.ScreenNames() {
		allowed[name] = true
	}
	return &ScreenHandler{
		screener: screener,
		indexes:  indexes,
		defaults: defaults,
		allowed:  allowed,
		logger:   log,
	}
}

// GetScreen runs one screen synchronously
// GET /screen/{name}?limit=&min_price=&plunge_pct=&lookback_days=&top_n_mc=&market=
func (h *ScreenHandler) GetScreen(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !h.allowed[name] {
		respondError(w, http.StatusNotFound, "unknown screen: "+name)
		return
	}

	params, err := ParseParams(r.URL.Query(), h.defaults)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, dataResponse{Data: h.run(r.Context(), name, params)})
}

// run executes a screen; upstream failures degrade to an empty list
func (h *ScreenHandler) run(ctx context.Context, name string, params selection.Params) []ScreenItem {
	result, err := h.screener.Run(ctx, name, params)
	if err != nil {
		log := h.logger.WithError(err).WithField("screen", name)
		if errors.Is(err, context.Canceled) {
			log.Debug("Screen canceled")
		} else {
			log.Warn("Screen failed, responding with empty data")
		}
		return []ScreenItem{}
	}
	return ToItems(result)
}

// GetMarketSummary returns KOSPI/KOSDAQ/NASDAQ last close and change
// GET /market/summary
func (h *ScreenHandler) GetMarketSummary(w http.ResponseWriter, r *http.Request) {
	summary := selection.MarketSummary(r.Context(), h.indexes, h.logger)
	respondJSON(w, http.StatusOK, dataResponse{Data: summary})
}

// ToItems converts ranked records to response items
func ToItems(result *contracts.ScreenResult) []ScreenItem {
	items := make([]ScreenItem, 0, result.Count())
	for _, rec := range result.Records {
		change := rec.Metric
		if !contracts.IsFinite(change) {
			change = 0
		}
		items = append(items, ScreenItem{
			ID:     strconv.Itoa(rec.Rank),
			Ticker: rec.Ticker,
			Name:   rec.Name,
			Price:  rec.Price,
			Change: change,
			Volume: rec.Volume,
			Value:  rec.Value,
		})
	}
	return items
}

// ParseParams reads the screen query parameters on top of defaults
func ParseParams(q url.Values, defaults selection.Params) (selection.Params, error) {
	p := defaults
	var err error

	if p.Limit, err = intParam(q, "limit", p.Limit); err != nil {
		return p, err
	}
	if p.MinPrice, err = floatParam(q, "min_price", p.MinPrice); err != nil {
		return p, err
	}
	if p.PlungePct, err = floatParam(q, "plunge_pct", p.PlungePct); err != nil {
		return p, err
	}
	if p.LookbackDays, err = intParam(q, "lookback_days", p.LookbackDays); err != nil {
		return p, err
	}
	if p.TopNMarketCap, err = intParam(q, "top_n_mc", p.TopNMarketCap); err != nil {
		return p, err
	}
	if v := q.Get("market"); v != "" {
		if p.Market, err = contracts.ParseMarket(v); err != nil {
			return p, err
		}
	}

	return p, p.Validate()
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func floatParam(q url.Values, key string, def float64) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !contracts.IsFinite(f) {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}
