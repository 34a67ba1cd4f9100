package selection

import (
	"fmt"
	"time"

	"github.com/wonny/screener/internal/contracts"
)

// Params are the per-request knobs shared by every screen
type Params struct {
	Market        contracts.Market
	Limit         int
	MinPrice      float64
	PlungePct     float64 // 급락 기준 (전일 등락률 ≤)
	LookbackDays  int     // 변동성 산정 구간 (영업일)
	TopNMarketCap int     // 시총 상위 범위
	AsOf          time.Time

	// 스크립트 전용
	SortBy     string // pct | amount
	WindowDays int    // 연속 상승 윈도우 거래일 수
}

// DefaultParams returns the HTTP defaults
func DefaultParams() Params {
	return Params{
		Market:        contracts.MarketKOSPI,
		Limit:         10,
		MinPrice:      1000,
		PlungePct:     -3.0,
		LookbackDays:  20,
		TopNMarketCap: 200,
		SortBy:        SortByPct,
		WindowDays:    8,
	}
}

// Sort keys for the gainers command
const (
	SortByPct    = "pct"
	SortByAmount = "amount"
)

// Validate checks parameter ranges
func (p Params) Validate() error {
	if p.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	if p.LookbackDays < 1 {
		return fmt.Errorf("lookback_days must be >= 1")
	}
	if p.TopNMarketCap < 1 {
		return fmt.Errorf("top_n_mc must be >= 1")
	}
	if p.SortBy != SortByPct && p.SortBy != SortByAmount {
		return fmt.Errorf("sort must be one of: pct, amount")
	}
	if p.WindowDays < 2 {
		return fmt.Errorf("window must be >= 2 trading days")
	}
	return nil
}
