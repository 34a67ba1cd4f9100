package snapshot

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/contracts"
)

func snap(day string, quotes ...contracts.Quote) *contracts.Snapshot {
	d, _ := time.Parse("2006-01-02", day)
	return contracts.NewSnapshot(d, contracts.MarketKOSPI, quotes)
}

func q(ticker string, close, pct float64, volume int64) contracts.Quote {
	return contracts.Quote{Ticker: ticker, Close: close, PctChange: pct, Volume: volume}
}

func TestStreakSeries(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 0, 1}, StreakSeries([]float64{10, 11, 12, 11, 12}))
	assert.Equal(t, []int{0, 1, 0, 0, 1}, StreakSeries([]float64{10, 11, math.NaN(), 11, 12}))
	assert.Equal(t, []int{0, 0, 0}, StreakSeries([]float64{5, 5, 5}))
	assert.Empty(t, StreakSeries(nil))
}

func TestStreaks_Window(t *testing.T) {
	window := []*contracts.Snapshot{
		snap("2024-01-09", q("A", 10, 0, 1), q("B", 10, 0, 1)),
		snap("2024-01-10", q("A", 11, 0, 1), q("B", 9, 0, 1)),
		snap("2024-01-11", q("A", 12, 0, 1)),
		snap("2024-01-12", q("A", 11, 0, 1), q("B", 10, 0, 1)),
		snap("2024-01-15", q("A", 12, 0, 1), q("B", 11, 0, 1), q("C", 5, 0, 1)),
	}

	got := Streaks(window)
	assert.Equal(t, 1, got["A"])
	assert.Equal(t, 1, got["B"]) // 01-11 누락 → 리셋, 01-12 → 01-15 상승
	assert.Equal(t, 0, got["C"])
}

func TestRecoverPrevClose(t *testing.T) {
	assert.InDelta(t, 1000.0, RecoverPrevClose(1050, 5.0), 1e-9)
	assert.InDelta(t, 90.91, RecoverPrevClose(100, 10.0), 0.005)
	assert.True(t, math.IsNaN(RecoverPrevClose(math.NaN(), 1)))
	assert.True(t, math.IsNaN(RecoverPrevClose(100, -100)))
}

func TestChangeAmount(t *testing.T) {
	amount, prev := ChangeAmount(q("A", 100, 10.0, 1), math.NaN())
	assert.InDelta(t, 90.91, prev, 0.005)
	assert.InDelta(t, 9.09, amount, 0.005)

	amount, prev = ChangeAmount(q("A", 100, 10.0, 1), 95)
	assert.Equal(t, 95.0, prev)
	assert.Equal(t, 5.0, amount)

	amount, _ = ChangeAmount(q("A", 100, math.NaN(), 1), math.NaN())
	assert.True(t, math.IsNaN(amount))
}

func TestSimpleChange(t *testing.T) {
	assert.InDelta(t, 50.0, SimpleChange(1050, 5), 1e-9)
	assert.True(t, math.IsNaN(SimpleChange(100, -100)))
}

func TestVolatility(t *testing.T) {
	// 수익률 +10%, -10% → 평균 0, 모집단 표준편차 10
	std, err := Volatility([]float64{999, 100, 110, 99}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, std, 1e-9)

	_, err = Volatility([]float64{100, 110}, 2)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = Volatility([]float64{100, math.NaN(), 110}, 2)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	std, err = Volatility([]float64{100, 100, 100}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, std)
}

func TestVolumeGrowth(t *testing.T) {
	assert.InDelta(t, 100.0, VolumeGrowth(200, 100), 1e-9)
	assert.InDelta(t, -50.0, VolumeGrowth(50, 100), 1e-9)
	assert.True(t, math.IsNaN(VolumeGrowth(100, 0)))
}

func TestJoin_InnerAndOrder(t *testing.T) {
	rows := Join([]*contracts.Snapshot{
		snap("2024-01-11", q("A", 10, 0, 100), q("B", 20, -4, 100), q("C", 30, 0, 100)),
		snap("2024-01-12", q("C", 31, 3.3, 300), q("B", 21, 5, 50), q("D", 40, 1, 10)),
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "C", rows[0].Ticker)
	assert.Equal(t, "B", rows[1].Ticker)

	assert.Equal(t, 30.0, rows[0].PrevClose)
	assert.Equal(t, 1.0, rows[0].Amount)
	assert.InDelta(t, 200.0, rows[0].Growth, 1e-9)
	assert.Equal(t, 1, rows[0].Streak)
	assert.Equal(t, -4.0, rows[1].PrevPct)
	assert.Equal(t, []float64{20, 21}, rows[1].Closes)
}

func TestJoin_EmptyDateDropsAll(t *testing.T) {
	rows := Join([]*contracts.Snapshot{snap("2024-01-11"), snap("2024-01-12", q("A", 1, 0, 1))})
	assert.Empty(t, rows)
}

func TestLeftJoinPrev(t *testing.T) {
	rows := LeftJoinPrev(
		snap("2024-01-12", q("A", 1050, 5, 1), q("B", 100, 10, 1)),
		snap("2024-01-11", q("A", 1000, 0, 1)),
	)

	require.Len(t, rows, 2)
	assert.Equal(t, 50.0, rows[0].Amount)
	assert.InDelta(t, 90.91, rows[1].PrevClose, 0.005)
	assert.InDelta(t, 9.09, rows[1].Amount, 0.005)
}

func TestJoinFundamentals(t *testing.T) {
	rows := Rows(snap("2024-01-12", q("A", 1000, 1, 1), q("B", 2000, 1, 1)))
	out := JoinFundamentals(rows, []contracts.Fundamental{{Ticker: "B", PER: 7.5}})

	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].Ticker)
	assert.Equal(t, 7.5, out[0].Fundamental.PER)
}
