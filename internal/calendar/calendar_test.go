package calendar

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/logger"
)

var kst = time.FixedZone("KST", 9*60*60)

// fakeSource serves snapshots for a fixed set of dates and counts calls
type fakeSource struct {
	days  map[string]*contracts.Snapshot
	fail  map[string]bool
	calls []string
}

func newFakeSource(dates ...string) *fakeSource {
	f := &fakeSource{days: map[string]*contracts.Snapshot{}, fail: map[string]bool{}}
	for _, d := range dates {
		f.days[d] = contracts.NewSnapshot(time.Time{}, contracts.MarketKOSPI, []contracts.Quote{
			{Ticker: "005930", Close: 70000, PctChange: 1.0},
		})
	}
	return f
}

func (f *fakeSource) Snapshot(ctx context.Context, date time.Time, market contracts.Market) (*contracts.Snapshot, error) {
	key := date.Format("2006-01-02")
	f.calls = append(f.calls, key)
	if f.fail[key] {
		return nil, errors.New("upstream 500")
	}
	if s, ok := f.days[key]; ok {
		return s, nil
	}
	return nil, contracts.ErrNoData
}

func day(s string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", s, kst)
	return t
}

func TestFindLatest_SkipsWeekend(t *testing.T) {
	src := newFakeSource("2024-01-12") // 금요일
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	got, err := r.FindLatest(context.Background(), day("2024-01-14"), DefaultMaxBack)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-12", got.Format("2006-01-02"))
	assert.Equal(t, []string{"2024-01-14", "2024-01-13", "2024-01-12"}, src.calls)
}

func TestFindLatest_ProviderErrorIsNoData(t *testing.T) {
	src := newFakeSource("2024-01-11", "2024-01-12")
	src.fail["2024-01-12"] = true
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	got, err := r.FindLatest(context.Background(), day("2024-01-12"), 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", got.Format("2006-01-02"))
}

func TestFindLatest_BoundedScan(t *testing.T) {
	src := newFakeSource()
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	_, err := r.FindLatest(context.Background(), day("2024-01-15"), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTradingDate))
	assert.Len(t, src.calls, 6)
}

func TestFindLatest_RequiresPctChange(t *testing.T) {
	src := newFakeSource("2024-01-11")
	src.days["2024-01-12"] = contracts.NewSnapshot(time.Time{}, contracts.MarketKOSPI, []contracts.Quote{
		{Ticker: "005930", Close: 70000, PctChange: math.NaN()},
	})
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	got, err := r.FindLatest(context.Background(), day("2024-01-12"), 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", got.Format("2006-01-02"))
}

func TestPrevious(t *testing.T) {
	src := newFakeSource("2024-01-12", "2024-01-15")
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	got, err := r.Previous(context.Background(), day("2024-01-15"), DefaultMaxBack)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-12", got.Format("2006-01-02"))
}

func TestRecent_OldestFirst(t *testing.T) {
	src := newFakeSource("2024-01-10", "2024-01-11", "2024-01-12", "2024-01-15")
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	got, err := r.Recent(context.Background(), 3, day("2024-01-15"), DefaultRecentMaxBack)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-11", got[0].Format("2006-01-02"))
	assert.Equal(t, "2024-01-12", got[1].Format("2006-01-02"))
	assert.Equal(t, "2024-01-15", got[2].Format("2006-01-02"))
}

func TestRecent_FewerThanRequested(t *testing.T) {
	src := newFakeSource("2024-01-15")
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	got, err := r.Recent(context.Background(), 4, day("2024-01-15"), 7)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, src.calls, 7)
}

func TestRecent_ContextCancelled(t *testing.T) {
	src := newFakeSource("2024-01-15")
	r := NewResolver(src, contracts.MarketKOSPI, kst, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RecentSnapshots(ctx, 2, day("2024-01-15"), 10)
	assert.ErrorIs(t, err, context.Canceled)
}
