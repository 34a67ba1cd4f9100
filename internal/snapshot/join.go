package snapshot

import (
	"math"

	"github.com/wonny/screener/internal/contracts"
)

// Row is one ticker after joining one or more daily snapshots.
// Quote holds today's (newest) values; derived fields are NaN when unavailable.
type Row struct {
	contracts.Quote

	PrevClose  float64   // 전일 종가 (없으면 등락률로 역산)
	Amount     float64   // 상승가격 = 종가 - 전일 종가
	PrevPct    float64   // 전일 등락률
	PrevVolume int64     // 전일 거래량
	Growth     float64   // 거래량 증가율 (%)
	Streak     int       // 연속 상승일수
	Closes     []float64 // 윈도우 종가 (오래된 → 최신)
	Volatility float64   // 일간 수익률 표준편차 (%)

	Fundamental *contracts.Fundamental
}

func newRow(q contracts.Quote) Row {
	return Row{
		Quote:      q,
		PrevClose:  math.NaN(),
		Amount:     math.NaN(),
		PrevPct:    math.NaN(),
		Growth:     math.NaN(),
		Volatility: math.NaN(),
	}
}

// Rows turns a single snapshot into rows. Amount is recovered from 등락률.
func Rows(today *contracts.Snapshot) []Row {
	if today.Empty() {
		return nil
	}
	rows := make([]Row, 0, today.Len())
	for _, q := range today.Quotes {
		r := newRow(q)
		r.Amount, r.PrevClose = ChangeAmount(q, math.NaN())
		r.Closes = []float64{q.Close}
		rows = append(rows, r)
	}
	return rows
}

// LeftJoinPrev keeps every ticker of today and attaches yesterday's close when present.
// Missing previous closes are recovered from today's 등락률.
func LeftJoinPrev(today, prev *contracts.Snapshot) []Row {
	if today.Empty() {
		return nil
	}
	rows := make([]Row, 0, today.Len())
	for _, q := range today.Quotes {
		r := newRow(q)
		prevClose := math.NaN()
		if p, ok := prev.Get(q.Ticker); ok {
			prevClose = p.Close
			r.PrevPct = p.PctChange
			r.PrevVolume = p.Volume
			r.Closes = []float64{p.Close, q.Close}
		} else {
			r.Closes = []float64{math.NaN(), q.Close}
		}
		r.Amount, r.PrevClose = ChangeAmount(q, prevClose)
		r.Growth = VolumeGrowth(q.Volume, r.PrevVolume)
		rows = append(rows, r)
	}
	return rows
}

// Join inner-joins snapshots (oldest → newest) on ticker.
// Only tickers present on every date survive; order follows the newest snapshot.
// ⭐ SSOT: 다중 일자 조인은 여기서만
func Join(snaps []*contracts.Snapshot) []Row {
	if len(snaps) == 0 {
		return nil
	}
	for _, s := range snaps {
		if s.Empty() {
			return nil
		}
	}

	today := snaps[len(snaps)-1]
	rows := make([]Row, 0, today.Len())

	for _, q := range today.Quotes {
		closes := make([]float64, len(snaps))
		complete := true
		for i, s := range snaps {
			sq, ok := s.Get(q.Ticker)
			if !ok {
				complete = false
				break
			}
			closes[i] = sq.Close
		}
		if !complete {
			continue
		}

		r := newRow(q)
		r.Closes = closes
		prevClose := math.NaN()
		if len(snaps) >= 2 {
			p, _ := snaps[len(snaps)-2].Get(q.Ticker)
			prevClose = p.Close
			r.PrevPct = p.PctChange
			r.PrevVolume = p.Volume
			r.Growth = VolumeGrowth(q.Volume, p.Volume)
		}
		r.Amount, r.PrevClose = ChangeAmount(q, prevClose)
		series := StreakSeries(closes)
		r.Streak = series[len(series)-1]
		rows = append(rows, r)
	}
	return rows
}

// JoinFundamentals inner-joins rows with valuation data on ticker
func JoinFundamentals(rows []Row, funds []contracts.Fundamental) []Row {
	byTicker := make(map[string]*contracts.Fundamental, len(funds))
	for i := range funds {
		if _, dup := byTicker[funds[i].Ticker]; !dup {
			byTicker[funds[i].Ticker] = &funds[i]
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		f, ok := byTicker[r.Ticker]
		if !ok {
			continue
		}
		r.Fundamental = f
		out = append(out, r)
	}
	return out
}

// ApplyStreaks sets Streak on rows from a multi-day window
func ApplyStreaks(rows []Row, window []*contracts.Snapshot) []Row {
	streaks := Streaks(window)
	for i := range rows {
		rows[i].Streak = streaks[rows[i].Ticker]
	}
	return rows
}
