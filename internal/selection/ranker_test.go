package selection

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/snapshot"
	"github.com/wonny/screener/pkg/logger"
)

func rowsOf(quotes ...contracts.Quote) []snapshot.Row {
	return snapshot.Rows(contracts.NewSnapshot(d("2024-01-15"), contracts.MarketKOSPI, quotes))
}

func byPctDesc() RankSpec {
	return RankSpec{Key: pct, Descending: true}
}

func TestRank_DenseRanksAndCount(t *testing.T) {
	r := NewRanker(newFakeProvider(), logger.Nop())
	rows := rowsOf(
		quote("A", "", 1000, 1, 1, 1),
		quote("B", "", 1000, 5, 1, 1),
		quote("C", "", 1000, 3, 1, 1),
		quote("D", "", 1000, math.NaN(), 1, 1),
	)

	got := r.Rank(context.Background(), rows, byPctDesc(), 10)
	require.Len(t, got, 3)
	for i, rec := range got {
		assert.Equal(t, i+1, rec.Rank)
	}
	assert.Equal(t, []string{"B", "C", "A"}, []string{got[0].Ticker, got[1].Ticker, got[2].Ticker})

	got = r.Rank(context.Background(), rows, byPctDesc(), 2)
	assert.Len(t, got, 2)
}

func TestRank_TopNZero(t *testing.T) {
	r := NewRanker(newFakeProvider(), logger.Nop())
	got := r.Rank(context.Background(), rowsOf(quote("A", "", 1000, 1, 1, 1)), byPctDesc(), 0)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRank_TiesKeepSourceOrder(t *testing.T) {
	r := NewRanker(newFakeProvider(), logger.Nop())
	rows := rowsOf(
		quote("X", "", 1000, 2, 1, 1),
		quote("Y", "", 1000, 2, 1, 1),
		quote("Z", "", 1000, 2, 1, 1),
	)

	got := r.Rank(context.Background(), rows, byPctDesc(), 3)
	assert.Equal(t, "X", got[0].Ticker)
	assert.Equal(t, "Y", got[1].Ticker)
	assert.Equal(t, "Z", got[2].Ticker)
}

func TestRank_NameFallsBackToTicker(t *testing.T) {
	p := newFakeProvider()
	p.names["A"] = "삼성전자"
	r := NewRanker(p, logger.Nop())

	got := r.Rank(context.Background(), rowsOf(
		quote("A", "", 1000, 2, 1, 1),
		quote("B", "", 1000, 1, 1, 1),
	), byPctDesc(), 2)

	assert.Equal(t, "삼성전자", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
}

func TestRank_FilterAndValueOf(t *testing.T) {
	r := NewRanker(nil, logger.Nop())
	spec := RankSpec{
		Filter:     func(row snapshot.Row) bool { return row.Close >= 1000 },
		Key:        pct,
		Descending: true,
		ValueOf:    func(row snapshot.Row) int64 { return row.Volume },
	}

	got := r.Rank(context.Background(), rowsOf(
		quote("A", "", 999, 9, 10, 1),
		quote("B", "", 1000, 1, 20, 1),
	), spec, 5)

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Ticker)
	assert.Equal(t, int64(20), got[0].Value)
}

func TestRoundInt(t *testing.T) {
	assert.Equal(t, int64(9), RoundInt(9.0909))
	assert.Equal(t, int64(2), RoundInt(2.5))
	assert.Equal(t, int64(4), RoundInt(3.5))
	assert.Equal(t, int64(-2), RoundInt(-2.5))
	assert.Equal(t, int64(0), RoundInt(math.NaN()))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 90.91, RoundTo(90.9090909, 2))
	assert.True(t, math.IsNaN(RoundTo(math.NaN(), 2)))
}
