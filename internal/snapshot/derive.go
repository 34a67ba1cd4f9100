package snapshot

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/screener/internal/contracts"
)

// ErrInsufficientHistory means a ticker has fewer bars than the lookback needs
var ErrInsufficientHistory = errors.New("insufficient history")

// RecoverPrevClose approximates the previous close as close / (1 + pct/100)
func RecoverPrevClose(close, pct float64) float64 {
	if !contracts.IsFinite(close) || !contracts.IsFinite(pct) || pct <= -100 {
		return math.NaN()
	}
	return close / (1 + pct/100)
}

// ChangeAmount returns (close - prevClose, prevClose). When prevClose is not
// usable it is recovered from today's 등락률. Both are NaN if neither works.
func ChangeAmount(today contracts.Quote, prevClose float64) (float64, float64) {
	if !contracts.IsFinite(today.Close) {
		return math.NaN(), math.NaN()
	}
	if !contracts.IsFinite(prevClose) {
		prevClose = RecoverPrevClose(today.Close, today.PctChange)
	}
	if !contracts.IsFinite(prevClose) {
		return math.NaN(), math.NaN()
	}
	return today.Close - prevClose, prevClose
}

// SimpleChange is close · pct / (100 + pct), the 상승가격 derived from 등락률 alone
func SimpleChange(close, pct float64) float64 {
	if !contracts.IsFinite(close) || !contracts.IsFinite(pct) || pct == -100 {
		return math.NaN()
	}
	return close * (pct / (100 + pct))
}

// StreakSeries returns the consecutive-rise count at every position.
// The first position is 0; a missing close on either side resets to 0.
func StreakSeries(closes []float64) []int {
	out := make([]int, len(closes))
	for i := 1; i < len(closes); i++ {
		c, p := closes[i], closes[i-1]
		if contracts.IsFinite(c) && contracts.IsFinite(p) && c > p {
			out[i] = out[i-1] + 1
		}
	}
	return out
}

// Streaks computes each newest-date ticker's streak across the window
// (oldest → newest). Tickers missing on a date have NaN close there.
func Streaks(window []*contracts.Snapshot) map[string]int {
	if len(window) == 0 {
		return nil
	}
	today := window[len(window)-1]
	out := make(map[string]int, today.Len())
	closes := make([]float64, len(window))
	for _, q := range today.Quotes {
		for i, s := range window {
			if sq, ok := s.Get(q.Ticker); ok {
				closes[i] = sq.Close
			} else {
				closes[i] = math.NaN()
			}
		}
		series := StreakSeries(closes)
		out[q.Ticker] = series[len(series)-1]
	}
	return out
}

// Volatility uses the last lookback+1 closes, computes day-over-day % returns
// and returns their population standard deviation.
func Volatility(closes []float64, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, fmt.Errorf("lookback must be positive: %d", lookback)
	}
	if len(closes) < lookback+1 {
		return 0, fmt.Errorf("%w: %d closes for lookback %d", ErrInsufficientHistory, len(closes), lookback)
	}

	tail := closes[len(closes)-(lookback+1):]
	rets := make([]float64, 0, lookback)
	for i := 1; i < len(tail); i++ {
		p, c := tail[i-1], tail[i]
		if !contracts.IsFinite(p) || !contracts.IsFinite(c) || p == 0 {
			continue
		}
		rets = append(rets, (c/p-1)*100)
	}
	if len(rets) < lookback {
		return 0, fmt.Errorf("%w: %d returns for lookback %d", ErrInsufficientHistory, len(rets), lookback)
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var ss float64
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(rets))), nil
}

// VolumeGrowth returns (today/prev - 1) * 100, NaN when prev is not positive
func VolumeGrowth(today, prev int64) float64 {
	if prev <= 0 {
		return math.NaN()
	}
	return (float64(today)/float64(prev) - 1) * 100
}
