package selection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/screener/internal/calendar"
	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/snapshot"
)

// TopGainers ranks the latest snapshot by 등락률 descending
func (e *Engine) TopGainers(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	day, snap, err := e.latest(ctx, p, calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}
	records := e.ranker.Rank(ctx, snapshot.Rows(snap), RankSpec{
		Filter:     minPrice(p),
		Key:        pct,
		Descending: true,
	}, p.Limit)
	return e.result(ScreenTopGainers, p, day, records), nil
}

// TopLosers ranks the latest snapshot by 등락률 ascending
func (e *Engine) TopLosers(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	day, snap, err := e.latest(ctx, p, calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}
	records := e.ranker.Rank(ctx, snapshot.Rows(snap), RankSpec{
		Filter: minPrice(p),
		Key:    pct,
	}, p.Limit)
	return e.result(ScreenTopLosers, p, day, records), nil
}

// VolumeSurge ranks by volume growth vs. the previous trading day.
// The value column carries today's volume.
func (e *Engine) VolumeSurge(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	snaps, err := e.window(ctx, p, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return e.result(ScreenVolumeSurge, p, lastDate(snaps), nil), nil
	}

	base := minPrice(p)
	records := e.ranker.Rank(ctx, snapshot.Join(snaps), RankSpec{
		Filter: func(r snapshot.Row) bool {
			return base(r) && r.PrevVolume > 0
		},
		Key:        func(r snapshot.Row) float64 { return r.Growth },
		Descending: true,
		ValueOf:    func(r snapshot.Row) int64 { return r.Volume },
	}, p.Limit)
	return e.result(ScreenVolumeSurge, p, lastDate(snaps), records), nil
}

// ThreeUp keeps tickers whose close rose strictly on each of the last three days
func (e *Engine) ThreeUp(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	snaps, err := e.window(ctx, p, 4)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 4 {
		return e.result(ScreenThreeUp, p, lastDate(snaps), nil), nil
	}

	base := minPrice(p)
	records := e.ranker.Rank(ctx, snapshot.Join(snaps), RankSpec{
		Filter: func(r snapshot.Row) bool {
			return base(r) && strictlyIncreasing(r.Closes)
		},
		Key:        pct,
		Descending: true,
	}, p.Limit)
	return e.result(ScreenThreeUp, p, lastDate(snaps), records), nil
}

// BounceAfterPlunge keeps tickers that fell ≤ PlungePct yesterday and rose today
func (e *Engine) BounceAfterPlunge(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	snaps, err := e.window(ctx, p, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return e.result(ScreenBounceAfterPlunge, p, lastDate(snaps), nil), nil
	}

	base := minPrice(p)
	records := e.ranker.Rank(ctx, snapshot.Join(snaps), RankSpec{
		Filter: func(r snapshot.Row) bool {
			return base(r) &&
				contracts.IsFinite(r.PrevPct) &&
				r.PrevPct <= p.PlungePct &&
				r.PctChange > 0
		},
		Key:        pct,
		Descending: true,
	}, p.Limit)
	return e.result(ScreenBounceAfterPlunge, p, lastDate(snaps), records), nil
}

// TopByTradingValue ranks the latest snapshot by 거래대금 with no other filter
func (e *Engine) TopByTradingValue(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	day, snap, err := e.latest(ctx, p, calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}
	records := e.ranker.Rank(ctx, snapshot.Rows(snap), RankSpec{
		Key:        func(r snapshot.Row) float64 { return float64(r.Value) },
		Descending: true,
	}, p.Limit)
	return e.result(ScreenTopByTradingValue, p, day, records), nil
}

// DividendYield ranks by DIV descending
func (e *Engine) DividendYield(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	return e.fundamentalScreen(ctx, ScreenDividendYield, p, func(f *contracts.Fundamental) float64 {
		return f.DIV
	}, true)
}

// LowPER ranks by PER ascending
func (e *Engine) LowPER(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	return e.fundamentalScreen(ctx, ScreenLowPER, p, func(f *contracts.Fundamental) float64 {
		return f.PER
	}, false)
}

// LowPBR ranks by PBR ascending
func (e *Engine) LowPBR(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	return e.fundamentalScreen(ctx, ScreenLowPBR, p, func(f *contracts.Fundamental) float64 {
		return f.PBR
	}, false)
}

// fundamentalScreen joins the latest snapshot with fundamentals of the same date.
// Only strictly positive multiples are ranked.
func (e *Engine) fundamentalScreen(ctx context.Context, name string, p Params, field func(*contracts.Fundamental) float64, descending bool) (*contracts.ScreenResult, error) {
	day, snap, err := e.latest(ctx, p, calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}

	funds, err := e.provider.Fundamentals(ctx, day, p.Market)
	if err != nil {
		if errors.Is(err, contracts.ErrNoData) {
			return e.result(name, p, day, nil), nil
		}
		return nil, err
	}

	key := func(r snapshot.Row) float64 {
		if r.Fundamental == nil {
			return math.NaN()
		}
		return field(r.Fundamental)
	}
	base := minPrice(p)

	records := e.ranker.Rank(ctx, snapshot.JoinFundamentals(snapshot.Rows(snap), funds), RankSpec{
		Filter: func(r snapshot.Row) bool {
			return base(r) && key(r) > 0
		},
		Key:        key,
		Descending: descending,
	}, p.Limit)
	return e.result(name, p, day, records), nil
}

// StableBluechips ranks the largest market caps by return volatility ascending.
// History is fetched per ticker sequentially; a failing ticker is skipped.
func (e *Engine) StableBluechips(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	snaps, err := e.resolver(p.Market).RecentSnapshots(ctx, 1, e.reference(p), calendar.BlueChipMaxBack)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, calendar.ErrNoTradingDate
	}
	snap := snaps[len(snaps)-1]
	day := snap.Date

	caps := make([]contracts.Quote, 0, snap.Len())
	for _, q := range snap.Quotes {
		if q.MarketCap > 0 {
			caps = append(caps, q)
		}
	}
	if len(caps) == 0 {
		return e.result(ScreenStableBluechips, p, day, nil), nil
	}
	sort.SliceStable(caps, func(i, j int) bool {
		return caps[i].MarketCap > caps[j].MarketCap
	})
	if len(caps) > p.TopNMarketCap {
		caps = caps[:p.TopNMarketCap]
	}

	// 영업일 lookback을 덮도록 달력일 60일 여유
	from := day.AddDate(0, 0, -60)

	rows := make([]snapshot.Row, 0, len(caps))
	skipped := 0
	for _, q := range caps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := e.bluechipRow(ctx, q, from, day, p.LookbackDays)
		if err != nil {
			skipped++
			e.logger.WithFields(map[string]interface{}{
				"ticker": q.Ticker,
				"error":  err.Error(),
			}).Debug("Blue-chip ticker skipped")
			continue
		}
		rows = append(rows, row)
	}

	e.logger.WithFields(map[string]interface{}{
		"universe": len(caps),
		"scored":   len(rows),
		"skipped":  skipped,
	}).Info("Blue-chip volatility computed")

	records := e.ranker.Rank(ctx, rows, RankSpec{
		Filter: minPrice(p),
		Key:    func(r snapshot.Row) float64 { return r.Volatility },
	}, p.Limit)
	return e.result(ScreenStableBluechips, p, day, records), nil
}

func (e *Engine) bluechipRow(ctx context.Context, q contracts.Quote, from, to time.Time, lookback int) (snapshot.Row, error) {
	bars, err := e.provider.History(ctx, q.Ticker, from, to)
	if err != nil {
		return snapshot.Row{}, fmt.Errorf("history %s: %w", q.Ticker, err)
	}
	if len(bars) < lookback+1 {
		return snapshot.Row{}, fmt.Errorf("%w: %d bars", snapshot.ErrInsufficientHistory, len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	std, err := snapshot.Volatility(closes, lookback)
	if err != nil {
		return snapshot.Row{}, err
	}

	last := bars[len(bars)-1]
	row := snapshot.Row{
		Quote: contracts.Quote{
			Ticker:    q.Ticker,
			Name:      q.Name,
			Close:     last.Close,
			PctChange: math.NaN(),
			Volume:    last.Volume,
			Value:     last.Value,
			MarketCap: q.MarketCap,
		},
		PrevClose:  math.NaN(),
		Amount:     math.NaN(),
		PrevPct:    math.NaN(),
		Growth:     math.NaN(),
		Closes:     closes[len(closes)-(lookback+1):],
		Volatility: std,
	}
	return row, nil
}

func strictlyIncreasing(closes []float64) bool {
	for i := 1; i < len(closes); i++ {
		if !(closes[i] > closes[i-1]) {
			return false
		}
	}
	return len(closes) > 1
}

func lastDate(snaps []*contracts.Snapshot) time.Time {
	if len(snaps) == 0 {
		return time.Time{}
	}
	return snaps[len(snaps)-1].Date
}
