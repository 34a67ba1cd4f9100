package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/logger"
)

// ErrNoTradingDate is returned when the backward scan exhausts its bound
var ErrNoTradingDate = errors.New("no trading date found")

// Default scan bounds
const (
	DefaultMaxBack       = 10  // 최근/직전 거래일 탐색
	DefaultRecentMaxBack = 120 // N 거래일 윈도우 수집
	BlueChipMaxBack      = 365 // 우량주 기준일
)

// SnapshotSource is the subset of the provider the resolver needs
type SnapshotSource interface {
	Snapshot(ctx context.Context, date time.Time, market contracts.Market) (*contracts.Snapshot, error)
}

// Resolver finds trading dates by probing the provider day by day
// ⭐ SSOT: 거래일 판정은 여기서만
type Resolver struct {
	source SnapshotSource
	market contracts.Market
	loc    *time.Location
	logger *logger.Logger
}

// NewResolver creates a resolver for one market
func NewResolver(source SnapshotSource, market contracts.Market, loc *time.Location, log *logger.Logger) *Resolver {
	if loc == nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return &Resolver{
		source: source,
		market: market,
		loc:    loc,
		logger: log,
	}
}

// Location returns the market timezone
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Day truncates t to midnight in the market timezone
func (r *Resolver) Day(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc)
}

// Today returns the current market date
func (r *Resolver) Today() time.Time {
	return r.Day(time.Now())
}

// probe fetches one date. Provider errors count as "no data".
func (r *Resolver) probe(ctx context.Context, day time.Time) *contracts.Snapshot {
	snap, err := r.source.Snapshot(ctx, day, r.market)
	if err != nil {
		r.logger.WithFields(map[string]interface{}{
			"date":   day.Format("2006-01-02"),
			"market": r.market,
			"error":  err.Error(),
		}).Debug("Calendar probe failed")
		return nil
	}
	return snap
}

// FindLatestSnapshot scans ref, ref-1, ..., ref-maxBack and returns the first
// date whose snapshot is non-empty and carries 등락률, together with the snapshot.
func (r *Resolver) FindLatestSnapshot(ctx context.Context, ref time.Time, maxBack int) (time.Time, *contracts.Snapshot, error) {
	base := r.Day(ref)
	for i := 0; i <= maxBack; i++ {
		if err := ctx.Err(); err != nil {
			return time.Time{}, nil, err
		}
		day := base.AddDate(0, 0, -i)
		snap := r.probe(ctx, day)
		if !snap.Empty() && snap.HasPctChange() {
			return day, snap, nil
		}
	}
	return time.Time{}, nil, fmt.Errorf("%w: %s within %d days", ErrNoTradingDate, base.Format("2006-01-02"), maxBack)
}

// FindLatest returns the most recent trading date on or before ref
func (r *Resolver) FindLatest(ctx context.Context, ref time.Time, maxBack int) (time.Time, error) {
	day, _, err := r.FindLatestSnapshot(ctx, ref, maxBack)
	return day, err
}

// Previous returns the trading date strictly before date
func (r *Resolver) Previous(ctx context.Context, date time.Time, maxBack int) (time.Time, error) {
	return r.FindLatest(ctx, r.Day(date).AddDate(0, 0, -1), maxBack)
}

// PreviousSnapshot is Previous plus the fetched snapshot
func (r *Resolver) PreviousSnapshot(ctx context.Context, date time.Time, maxBack int) (time.Time, *contracts.Snapshot, error) {
	return r.FindLatestSnapshot(ctx, r.Day(date).AddDate(0, 0, -1), maxBack)
}

// RecentSnapshots walks backward from end collecting up to n non-empty
// snapshots within maxBack calendar days. Result is oldest → newest and may
// hold fewer than n entries.
func (r *Resolver) RecentSnapshots(ctx context.Context, n int, end time.Time, maxBack int) ([]*contracts.Snapshot, error) {
	if n <= 0 {
		return nil, nil
	}

	base := r.Day(end)
	found := make([]*contracts.Snapshot, 0, n)
	for i := 0; i < maxBack && len(found) < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := base.AddDate(0, 0, -i)
		snap := r.probe(ctx, day)
		if snap.Empty() {
			continue
		}
		snap.Date = day
		found = append(found, snap)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Date.Before(found[j].Date)
	})

	r.logger.WithFields(map[string]interface{}{
		"wanted": n,
		"found":  len(found),
		"end":    base.Format("2006-01-02"),
	}).Debug("Recent trading dates collected")

	return found, nil
}

// Recent is RecentSnapshots returning only the dates
func (r *Resolver) Recent(ctx context.Context, n int, end time.Time, maxBack int) ([]time.Time, error) {
	snaps, err := r.RecentSnapshots(ctx, n, end, maxBack)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(snaps))
	for i, s := range snaps {
		dates[i] = s.Date
	}
	return dates, nil
}
