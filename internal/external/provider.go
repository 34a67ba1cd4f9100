// Package external wires the KRX and Naver adapters into one market data provider.
package external

import (
	"context"
	"time"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/external/krx"
	"github.com/wonny/screener/internal/external/naver"
	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/httputil"
	"github.com/wonny/screener/pkg/logger"
	"github.com/wonny/screener/pkg/redis"
)

// Provider implements contracts.MarketDataProvider and contracts.IndexProvider.
// 전종목 스냅샷/펀더멘털은 KRX, 개별 일봉/종목명/지수는 Naver.
type Provider struct {
	krx   *krx.Client
	naver *naver.Client
}

var (
	_ contracts.MarketDataProvider = (*Provider)(nil)
	_ contracts.IndexProvider      = (*Provider)(nil)
)

// NewProvider builds both adapters with their own HTTP clients.
// Redis가 활성화되어 있으면 프로세스 간 공유 레이트리밋을 건다.
func NewProvider(cfg *config.Config, rdb *redis.Client, log *logger.Logger) *Provider {
	krxHTTP := httputil.New(cfg, log)
	naverHTTP := httputil.New(cfg, log)

	if rdb != nil && rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, cfg.Redis.Namespace)
		krxHTTP = krxHTTP.WithRateLimiter(limiter, redis.KRXRateLimit)
		naverHTTP = naverHTTP.WithRateLimiter(limiter, redis.NaverRateLimit)
	}

	return New(
		krx.NewClient(krxHTTP, log.WithField("provider", "krx"), cfg.Provider.KRXBaseURL),
		naver.NewClient(naverHTTP, log.WithField("provider", "naver"), cfg.Provider),
	)
}

// New composes already-built adapters
func New(k *krx.Client, n *naver.Client) *Provider {
	return &Provider{krx: k, naver: n}
}

// Snapshot returns all quotes of a market on date
func (p *Provider) Snapshot(ctx context.Context, date time.Time, market contracts.Market) (*contracts.Snapshot, error) {
	return p.krx.Snapshot(ctx, date, market)
}

// Fundamentals returns PER/PBR/DIV of a market on date
func (p *Provider) Fundamentals(ctx context.Context, date time.Time, market contracts.Market) ([]contracts.Fundamental, error) {
	return p.krx.Fundamentals(ctx, date, market)
}

// History returns daily bars of one ticker
func (p *Provider) History(ctx context.Context, ticker string, from, to time.Time) ([]contracts.DailyBar, error) {
	return p.naver.History(ctx, ticker, from, to)
}

// Name resolves a ticker's display name
func (p *Provider) Name(ctx context.Context, ticker string) (string, error) {
	return p.naver.Name(ctx, ticker)
}

// IndexCloses returns recent closes of KOSPI, KOSDAQ or NASDAQ
func (p *Provider) IndexCloses(ctx context.Context, index string, days int) ([]contracts.IndexClose, error) {
	return p.naver.IndexCloses(ctx, index, days)
}

// String reports the provider identity for logs
func (p *Provider) String() string {
	return "krx+naver"
}
