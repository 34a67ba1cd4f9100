package selection

import (
	"context"
	"fmt"

	"github.com/wonny/screener/internal/calendar"
	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/snapshot"
)

// Gainers ranks the day's gainers by 등락률 or 상승금액.
// 상승금액 uses yesterday's close when present, otherwise it is recovered from 등락률.
func (e *Engine) Gainers(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	day, today, err := e.latest(ctx, p, calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}

	_, prev, err := e.resolver(p.Market).PreviousSnapshot(ctx, day, calendar.DefaultMaxBack)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"as_of": day.Format("2006-01-02"),
			"error": err.Error(),
		}).Warn("Previous trading date not found, recovering change from pct")
		prev = nil
	}

	key := pct
	if p.SortBy == SortByAmount {
		key = amount
	}

	records := e.ranker.Rank(ctx, snapshot.LeftJoinPrev(today, prev), RankSpec{
		Filter:     validChange,
		Key:        key,
		Descending: true,
		Metric:     pct,
	}, p.Limit)
	return e.result(ScreenGainers, p, day, records), nil
}

// GainersSimple ranks rising tickers by 등락률 with change = close·pct/(100+pct)
func (e *Engine) GainersSimple(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	day, today, err := e.latest(ctx, p, calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}

	rows := snapshot.Rows(today)
	for i := range rows {
		rows[i].Amount = snapshot.SimpleChange(rows[i].Close, rows[i].PctChange)
	}

	records := e.ranker.Rank(ctx, rows, RankSpec{
		Filter: func(r snapshot.Row) bool {
			return contracts.IsFinite(r.Close) && r.PctChange > 0
		},
		Key:        pct,
		Descending: true,
	}, p.Limit)
	return e.result(ScreenGainersSimple, p, day, records), nil
}

// Consecutive ranks by consecutive-rise streak over WindowDays trading days,
// ties broken by today's 등락률.
func (e *Engine) Consecutive(ctx context.Context, p Params) (*contracts.ScreenResult, error) {
	day, err := e.resolver(p.Market).FindLatest(ctx, e.reference(p), calendar.DefaultMaxBack)
	if err != nil {
		return nil, err
	}

	window, err := e.resolver(p.Market).RecentSnapshots(ctx, p.WindowDays, day, calendar.DefaultRecentMaxBack)
	if err != nil {
		return nil, err
	}
	if len(window) < p.WindowDays {
		e.logger.WithFields(map[string]interface{}{
			"wanted": p.WindowDays,
			"found":  len(window),
		}).Warn("Not enough trading days for streak window")
		return e.result(ScreenConsecutive, p, day, nil), nil
	}

	today := window[len(window)-1]
	if today.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, day.Format("2006-01-02"))
	}
	rows := snapshot.LeftJoinPrev(today, window[len(window)-2])
	rows = snapshot.ApplyStreaks(rows, window)

	records := e.ranker.Rank(ctx, rows, RankSpec{
		Filter: validChange,
		Key:    pct,
		Less: func(a, b snapshot.Row) bool {
			if a.Streak != b.Streak {
				return a.Streak > b.Streak
			}
			return a.PctChange > b.PctChange
		},
	}, p.Limit)
	return e.result(ScreenConsecutive, p, day, records), nil
}

func validChange(r snapshot.Row) bool {
	return contracts.IsFinite(r.Close) && contracts.IsFinite(r.PctChange) && contracts.IsFinite(r.Amount)
}
