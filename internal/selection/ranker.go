package selection

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/snapshot"
	"github.com/wonny/screener/pkg/logger"
)

// Filter decides whether a row may be ranked
type Filter func(r snapshot.Row) bool

// KeyFunc extracts a numeric sort/metric value from a row
type KeyFunc func(r snapshot.Row) float64

// RankSpec describes one screen's filter + sort
type RankSpec struct {
	Filter     Filter
	Key        KeyFunc // 정렬 기준 (NaN/Inf 행은 제외)
	Descending bool

	// Less overrides Key ordering for composite sorts (Key still gates finiteness)
	Less func(a, b snapshot.Row) bool

	// Metric is the displayed value; defaults to Key
	Metric KeyFunc

	// ValueOf fills RankedRecord.Value; defaults to 거래대금
	ValueOf func(r snapshot.Row) int64
}

// Ranker implements filter → stable sort → top-N → name resolution
// ⭐ SSOT: 랭킹 로직은 여기서만
type Ranker struct {
	names  contracts.NameResolver
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(names contracts.NameResolver, logger *logger.Logger) *Ranker {
	return &Ranker{
		names:  names,
		logger: logger,
	}
}

// Rank returns at most topN records with dense 1-based ranks.
// Ties keep the source row order; topN <= 0 yields an empty slice.
func (r *Ranker) Rank(ctx context.Context, rows []snapshot.Row, spec RankSpec, topN int) []contracts.RankedRecord {
	if topN <= 0 {
		return []contracts.RankedRecord{}
	}

	kept := make([]snapshot.Row, 0, len(rows))
	for _, row := range rows {
		if !contracts.IsFinite(spec.Key(row)) {
			continue
		}
		if spec.Filter != nil && !spec.Filter(row) {
			continue
		}
		kept = append(kept, row)
	}

	less := spec.Less
	if less == nil {
		less = func(a, b snapshot.Row) bool {
			if spec.Descending {
				return spec.Key(a) > spec.Key(b)
			}
			return spec.Key(a) < spec.Key(b)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return less(kept[i], kept[j])
	})

	if len(kept) > topN {
		kept = kept[:topN]
	}

	metric := spec.Metric
	if metric == nil {
		metric = spec.Key
	}

	records := make([]contracts.RankedRecord, 0, len(kept))
	for i, row := range kept {
		value := row.Value
		if spec.ValueOf != nil {
			value = spec.ValueOf(row)
		}
		records = append(records, contracts.RankedRecord{
			Rank:   i + 1,
			Ticker: row.Ticker,
			Name:   r.resolveName(ctx, row.Ticker),
			Price:  RoundInt(row.Close),
			Change: RoundInt(row.Amount),
			Metric: metric(row),
			Volume: row.Volume,
			Value:  value,
			Streak: row.Streak,
		})
	}

	r.logger.WithFields(map[string]interface{}{
		"input":  len(rows),
		"passed": len(records),
		"top_n":  topN,
	}).Debug("Ranking completed")

	return records
}

// resolveName is best-effort: failures fall back to the ticker id
func (r *Ranker) resolveName(ctx context.Context, ticker string) string {
	if r.names == nil {
		return ticker
	}
	name, err := r.names.Name(ctx, ticker)
	if err != nil || name == "" {
		r.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
		}).Debug("Name lookup failed, using ticker")
		return ticker
	}
	return name
}

// RoundInt rounds half to even (0 for NaN)
func RoundInt(v float64) int64 {
	if !contracts.IsFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).RoundBank(0).IntPart()
}

// RoundTo rounds v to places decimals, half to even
func RoundTo(v float64, places int32) float64 {
	if !contracts.IsFinite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}
