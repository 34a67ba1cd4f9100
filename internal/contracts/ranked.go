package contracts

// RankedRecord is one output row of a screen
// ⭐ SSOT: 스크린 결과 한 줄 (생성 후 변경 금지)
type RankedRecord struct {
	Rank   int     `json:"rank"` // 1-based, dense
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Price  int64   `json:"price"`
	Change int64   `json:"change"`
	Metric float64 `json:"metric"` // 가격 스크린은 등락률, 그 외는 스크린 지표
	Volume int64   `json:"volume"`
	Value  int64   `json:"value"`
	Streak int     `json:"streak,omitempty"`
}

// ScreenResult is a ranked list for one trading date
type ScreenResult struct {
	Screen  string         `json:"screen"`
	AsOf    string         `json:"as_of"` // YYYY-MM-DD
	Market  Market         `json:"market"`
	Records []RankedRecord `json:"records"`
}

// Count returns the number of records
func (r *ScreenResult) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}
