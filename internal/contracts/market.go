package contracts

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Market identifies an exchange board
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// ParseMarket normalizes a user supplied market name
func ParseMarket(s string) (Market, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "KOSPI":
		return MarketKOSPI, nil
	case "KOSDAQ":
		return MarketKOSDAQ, nil
	default:
		return "", fmt.Errorf("unsupported market: %s", s)
	}
}

// ErrNoData is returned by providers when a date/ticker has no rows (휴장일 등)
var ErrNoData = errors.New("no market data")

// ErrNameNotFound is returned when a ticker name cannot be resolved
var ErrNameNotFound = errors.New("ticker name not found")

// Quote is one row of a daily market snapshot.
// Missing numeric fields are NaN; callers check with IsFinite.
type Quote struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Close     float64 `json:"close"`
	Change    float64 `json:"change"`     // 전일 대비 (제공자 값)
	PctChange float64 `json:"pct_change"` // 등락률 (%)
	Volume    int64   `json:"volume"`
	Value     int64   `json:"value"` // 거래대금
	MarketCap int64   `json:"market_cap"`
	Shares    int64   `json:"shares"`
}

// Snapshot is the per-date table of quotes keyed by ticker.
// Row order is the provider's order and is used as the ranking tie-break.
// ⭐ SSOT: 일자별 시세 테이블
type Snapshot struct {
	Date   time.Time
	Market Market
	Quotes []Quote

	index map[string]int
}

// NewSnapshot builds a snapshot; duplicate tickers keep the first row
func NewSnapshot(date time.Time, market Market, quotes []Quote) *Snapshot {
	s := &Snapshot{
		Date:   date,
		Market: market,
		Quotes: make([]Quote, 0, len(quotes)),
		index:  make(map[string]int, len(quotes)),
	}
	for _, q := range quotes {
		if q.Ticker == "" {
			continue
		}
		if _, dup := s.index[q.Ticker]; dup {
			continue
		}
		s.index[q.Ticker] = len(s.Quotes)
		s.Quotes = append(s.Quotes, q)
	}
	return s
}

// Len returns the number of rows
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Quotes)
}

// Empty reports whether the snapshot has no rows
func (s *Snapshot) Empty() bool {
	return s.Len() == 0
}

// Get returns the row for ticker
func (s *Snapshot) Get(ticker string) (Quote, bool) {
	if s == nil {
		return Quote{}, false
	}
	i, ok := s.index[ticker]
	if !ok {
		return Quote{}, false
	}
	return s.Quotes[i], true
}

// HasPctChange reports whether any row carries a usable 등락률.
// A snapshot without it is not treated as a trading date.
func (s *Snapshot) HasPctChange() bool {
	if s == nil {
		return false
	}
	for _, q := range s.Quotes {
		if IsFinite(q.PctChange) {
			return true
		}
	}
	return false
}

// Fundamental holds per-ticker valuation multiples for a date
type Fundamental struct {
	Ticker string  `json:"ticker"`
	BPS    float64 `json:"bps"`
	PER    float64 `json:"per"`
	PBR    float64 `json:"pbr"`
	EPS    float64 `json:"eps"`
	DIV    float64 `json:"div"` // 배당수익률 (%)
	DPS    float64 `json:"dps"`
}

// DailyBar is one row of a single ticker's price history
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Value  int64     `json:"value"`
}

// IndexClose is one daily close of a market index
type IndexClose struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// IsFinite reports whether v is a usable number
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
