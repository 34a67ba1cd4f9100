package selection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/logger"
)

type fakeIndexes map[string][]float64

func (f fakeIndexes) IndexCloses(_ context.Context, index string, _ int) ([]contracts.IndexClose, error) {
	values, ok := f[index]
	if !ok {
		return nil, errors.New("upstream down")
	}
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	out := make([]contracts.IndexClose, len(values))
	for i, v := range values {
		out[i] = contracts.IndexClose{Date: base.AddDate(0, 0, i), Close: v}
	}
	return out, nil
}

func TestMarketSummary(t *testing.T) {
	provider := fakeIndexes{
		"KOSPI":  {2500, 2525.054},
		"NASDAQ": {15000},
	}

	got := MarketSummary(context.Background(), provider, logger.Nop())
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "KOSPI", got[0].Name)
	assert.Equal(t, 2525.05, got[0].Value)
	assert.Equal(t, 1.0, got[0].Change)

	// KOSDAQ 누락 → id는 위치 기준 유지
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, "NASDAQ", got[1].Name)
	assert.Equal(t, 0.0, got[1].Change)
}

func TestMarketSummary_AllMissing(t *testing.T) {
	got := MarketSummary(context.Background(), fakeIndexes{}, logger.Nop())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
