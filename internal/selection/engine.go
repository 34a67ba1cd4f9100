package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/screener/internal/calendar"
	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/snapshot"
	"github.com/wonny/screener/pkg/logger"
)

// ErrEmptyData means the provider returned nothing for a resolved date
var ErrEmptyData = errors.New("empty upstream data")

// ErrUnknownScreen is returned for an unregistered screen name
var ErrUnknownScreen = errors.New("unknown screen")

// Screen names
const (
	ScreenTopGainers        = "top-gainers"
	ScreenTopLosers         = "top-losers"
	ScreenVolumeSurge       = "volume-surge"
	ScreenThreeUp           = "three-up"
	ScreenBounceAfterPlunge = "bounce-after-plunge"
	ScreenTopByTradingValue = "top-by-trading-value"
	ScreenStableBluechips   = "stable-bluechips"
	ScreenDividendYield     = "dividend-yield"
	ScreenLowPER            = "low-per"
	ScreenLowPBR            = "low-pbr"

	ScreenGainers       = "gainers"
	ScreenGainersSimple = "gainers-simple"
	ScreenConsecutive   = "consecutive"
)

// ScreenFunc runs one screen
type ScreenFunc func(ctx context.Context, p Params) (*contracts.ScreenResult, error)

// Engine wires the resolver, joiner and ranker into named screens.
// Every call fetches from the provider; nothing is cached between calls.
// ⭐ SSOT: 스크린 정의는 여기서만
type Engine struct {
	provider contracts.MarketDataProvider
	ranker   *Ranker
	loc      *time.Location
	logger   *logger.Logger
	now      func() time.Time
}

// NewEngine creates a screening engine
func NewEngine(provider contracts.MarketDataProvider, loc *time.Location, log *logger.Logger) *Engine {
	return &Engine{
		provider: provider,
		ranker:   NewRanker(provider, log),
		loc:      loc,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock overrides the reference clock (tests, backfills)
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) resolver(market contracts.Market) *calendar.Resolver {
	return calendar.NewResolver(e.provider, market, e.loc, e.logger)
}

func (e *Engine) reference(p Params) time.Time {
	if !p.AsOf.IsZero() {
		return p.AsOf
	}
	return e.now()
}

// Screens returns the HTTP-facing screens by name
func (e *Engine) Screens() map[string]ScreenFunc {
	return map[string]ScreenFunc{
		ScreenTopGainers:        e.TopGainers,
		ScreenTopLosers:         e.TopLosers,
		ScreenVolumeSurge:       e.VolumeSurge,
		ScreenThreeUp:           e.ThreeUp,
		ScreenBounceAfterPlunge: e.BounceAfterPlunge,
		ScreenTopByTradingValue: e.TopByTradingValue,
		ScreenStableBluechips:   e.StableBluechips,
		ScreenDividendYield:     e.DividendYield,
		ScreenLowPER:            e.LowPER,
		ScreenLowPBR:            e.LowPBR,
	}
}

// AllScreens adds the command-line screens to Screens
func (e *Engine) AllScreens() map[string]ScreenFunc {
	all := e.Screens()
	all[ScreenGainers] = e.Gainers
	all[ScreenGainersSimple] = e.GainersSimple
	all[ScreenConsecutive] = e.Consecutive
	return all
}

// ScreenNames returns the HTTP screen names sorted
func (e *Engine) ScreenNames() []string {
	names := make([]string, 0, 10)
	for name := range e.Screens() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllScreenNames returns every registered screen name sorted
func AllScreenNames() []string {
	names := make([]string, 0, 13)
	for name := range (&Engine{}).AllScreens() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run dispatches a screen by name
func (e *Engine) Run(ctx context.Context, name string, p Params) (*contracts.ScreenResult, error) {
	fn, ok := e.AllScreens()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}

	start := time.Now()
	result, err := fn(ctx, p)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"screen":   name,
		"market":   p.Market,
		"as_of":    result.AsOf,
		"count":    result.Count(),
		"duration": time.Since(start).String(),
	}).Info("Screen completed")

	return result, nil
}

func (e *Engine) result(name string, p Params, day time.Time, records []contracts.RankedRecord) *contracts.ScreenResult {
	asOf := ""
	if !day.IsZero() {
		asOf = day.Format("2006-01-02")
	}
	if records == nil {
		records = []contracts.RankedRecord{}
	}
	return &contracts.ScreenResult{
		Screen:  name,
		AsOf:    asOf,
		Market:  p.Market,
		Records: records,
	}
}

// latest resolves the newest trading date and its snapshot
func (e *Engine) latest(ctx context.Context, p Params, maxBack int) (time.Time, *contracts.Snapshot, error) {
	day, snap, err := e.resolver(p.Market).FindLatestSnapshot(ctx, e.reference(p), maxBack)
	if err != nil {
		return time.Time{}, nil, err
	}
	if snap.Empty() {
		return time.Time{}, nil, fmt.Errorf("%w: %s", ErrEmptyData, day.Format("2006-01-02"))
	}
	return day, snap, nil
}

// window collects n trading days (oldest → newest); fewer means "not enough history"
func (e *Engine) window(ctx context.Context, p Params, n int) ([]*contracts.Snapshot, error) {
	return e.resolver(p.Market).RecentSnapshots(ctx, n, e.reference(p), calendar.DefaultRecentMaxBack)
}

// common predicates
func minPrice(p Params) Filter {
	return func(r snapshot.Row) bool {
		return r.Close >= p.MinPrice && r.Volume > 0
	}
}

func pct(r snapshot.Row) float64    { return r.PctChange }
func amount(r snapshot.Row) float64 { return r.Amount }
