package selection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/screener/internal/contracts"
)

var kst = time.FixedZone("KST", 9*60*60)

func d(s string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", s, kst)
	return t
}

// fakeProvider is an in-memory MarketDataProvider
type fakeProvider struct {
	snaps      map[string]*contracts.Snapshot
	funds      map[string][]contracts.Fundamental
	history    map[string][]contracts.DailyBar
	historyErr map[string]error
	names      map[string]string

	historyCalls []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		snaps:      map[string]*contracts.Snapshot{},
		funds:      map[string][]contracts.Fundamental{},
		history:    map[string][]contracts.DailyBar{},
		historyErr: map[string]error{},
		names:      map[string]string{},
	}
}

func (f *fakeProvider) addDay(day string, quotes ...contracts.Quote) {
	f.snaps[day] = contracts.NewSnapshot(d(day), contracts.MarketKOSPI, quotes)
	for _, q := range quotes {
		if q.Name != "" {
			f.names[q.Ticker] = q.Name
		}
	}
}

func (f *fakeProvider) Snapshot(ctx context.Context, date time.Time, market contracts.Market) (*contracts.Snapshot, error) {
	if s, ok := f.snaps[date.Format("2006-01-02")]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%s: %w", date.Format("20060102"), contracts.ErrNoData)
}

func (f *fakeProvider) Fundamentals(ctx context.Context, date time.Time, market contracts.Market) ([]contracts.Fundamental, error) {
	if fs, ok := f.funds[date.Format("2006-01-02")]; ok {
		return fs, nil
	}
	return nil, contracts.ErrNoData
}

func (f *fakeProvider) History(ctx context.Context, ticker string, from, to time.Time) ([]contracts.DailyBar, error) {
	f.historyCalls = append(f.historyCalls, ticker)
	if err := f.historyErr[ticker]; err != nil {
		return nil, err
	}
	return f.history[ticker], nil
}

func (f *fakeProvider) Name(ctx context.Context, ticker string) (string, error) {
	if n, ok := f.names[ticker]; ok {
		return n, nil
	}
	return "", errors.New("lookup failed")
}

func quote(ticker, name string, close, pct float64, volume, value int64) contracts.Quote {
	return contracts.Quote{
		Ticker:    ticker,
		Name:      name,
		Close:     close,
		PctChange: pct,
		Change:    math.NaN(),
		Volume:    volume,
		Value:     value,
	}
}

func bars(closes ...float64) []contracts.DailyBar {
	out := make([]contracts.DailyBar, len(closes))
	start := d("2023-12-01")
	for i, c := range closes {
		out[i] = contracts.DailyBar{Date: start.AddDate(0, 0, i), Close: c, Volume: 1000, Value: int64(c) * 1000}
	}
	return out
}
