package contracts

import (
	"context"
	"time"
)

// MarketDataProvider is the upstream market-data collaborator.
// Implementations return ErrNoData (wrapped) for empty dates.
// ⭐ SSOT: 시세 제공자 인터페이스 (KRX/Naver 어댑터, 테스트 fake)
type MarketDataProvider interface {
	Snapshot(ctx context.Context, date time.Time, market Market) (*Snapshot, error)
	Fundamentals(ctx context.Context, date time.Time, market Market) ([]Fundamental, error)
	History(ctx context.Context, ticker string, from, to time.Time) ([]DailyBar, error)
	Name(ctx context.Context, ticker string) (string, error)
}

// NameResolver resolves ticker → display name
type NameResolver interface {
	Name(ctx context.Context, ticker string) (string, error)
}

// IndexProvider returns recent daily closes of a market index (KOSPI, KOSDAQ, NASDAQ)
type IndexProvider interface {
	IndexCloses(ctx context.Context, index string, days int) ([]IndexClose, error)
}

// ResultRepository persists published screen results
type ResultRepository interface {
	SaveResult(ctx context.Context, result *ScreenResult) error
	LatestResult(ctx context.Context, screen string) (*ScreenResult, error)
}
