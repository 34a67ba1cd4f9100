package output

import (
	"fmt"
	"strings"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/selection"
)

// PresetInput carries the command knobs that shape file names and rendering
type PresetInput struct {
	Screen   string
	Market   contracts.Market
	Top      int
	SortBy   string
	Format   Format
	Decimals int
	Schema   bool
}

// Preset returns the artifact name and render options for a screen.
//   - gainers:        <market>_top{N}_{sort}_{format}
//   - gainers-simple: <market>_top_gainers_with_change (compact, schema 고정)
//   - consecutive:    consecutive_ranked (rankByStreak, compact면 schema 포함)
//   - 그 외:           <market>_<screen>
func Preset(in PresetInput) (Artifact, Options) {
	opts := Options{
		Format:   in.Format,
		Decimals: in.Decimals,
		Schema:   in.Schema,
		RankKey:  RankKey,
	}
	if opts.Format == "" {
		opts.Format = FormatCompact
	}
	market := MarketPrefix(in.Market)

	switch in.Screen {
	case selection.ScreenGainers:
		return Artifact{Prefix: market, Suffix: fmt.Sprintf("top%d_%s_%s", in.Top, in.SortBy, opts.Format)}, opts

	case selection.ScreenGainersSimple:
		opts.Format = FormatCompact
		opts.Decimals = 1
		opts.Schema = true
		return Artifact{Prefix: market, Suffix: "top_gainers_with_change"}, opts

	case selection.ScreenConsecutive:
		opts.RankKey = RankByStreak
		opts.Schema = opts.Format == FormatCompact
		return Artifact{Prefix: "consecutive", Suffix: "ranked"}, opts

	default:
		return Artifact{Prefix: market, Suffix: strings.ReplaceAll(in.Screen, "-", "_")}, opts
	}
}
