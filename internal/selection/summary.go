package selection

import (
	"context"
	"strconv"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/logger"
)

// summaryIndexes is the fixed display order; ids are positional
var summaryIndexes = []string{"KOSPI", "KOSDAQ", "NASDAQ"}

// summaryWindow covers holidays so at least two closes come back
const summaryWindow = 10

// IndexSummary is one row of the market summary
type IndexSummary struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// MarketSummary reports the last close and day change of the major indexes.
// 데이터가 없는 지수는 건너뛴다.
func MarketSummary(ctx context.Context, provider contracts.IndexProvider, log *logger.Logger) []IndexSummary {
	out := make([]IndexSummary, 0, len(summaryIndexes))
	for i, name := range summaryIndexes {
		closes, err := provider.IndexCloses(ctx, name, summaryWindow)
		if err != nil || len(closes) == 0 {
			log.WithFields(map[string]interface{}{
				"index": name,
				"error": errString(err),
			}).Warn("Index skipped in market summary")
			continue
		}

		value, change := lastAndChange(closes)
		out = append(out, IndexSummary{
			ID:     strconv.Itoa(i + 1),
			Name:   name,
			Value:  RoundTo(value, 2),
			Change: RoundTo(change, 2),
		})
	}
	return out
}

// lastAndChange: 종가가 하나뿐이면 등락률 0
func lastAndChange(closes []contracts.IndexClose) (float64, float64) {
	last := closes[len(closes)-1].Close
	prev := last
	if len(closes) >= 2 {
		prev = closes[len(closes)-2].Close
	}
	if prev == 0 {
		return last, 0
	}
	return last, (last - prev) / prev * 100
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
