package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wonny/screener/internal/output"
	"github.com/wonny/screener/internal/selection"
	"github.com/wonny/screener/pkg/redis"
)

// publishOptions are the output flags shared by the script commands
type publishOptions struct {
	outDir   string
	format   string
	decimals int
	schema   bool
	noPrint  bool
	xlsx     bool
}

// runAndPublish runs one screen, writes the dated/latest files (and redis/xlsx)
// then prints the payload and one "[OK] saved:" line per location.
func runAndPublish(ctx context.Context, a *app, stdout io.Writer, screen string, params selection.Params, opts publishOptions) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	result, err := a.engine.Run(ctx, screen, params)
	if err != nil {
		return err
	}

	artifact, renderOpts := output.Preset(output.PresetInput{
		Screen:   screen,
		Market:   params.Market,
		Top:      params.Limit,
		SortBy:   params.SortBy,
		Format:   format,
		Decimals: opts.decimals,
		Schema:   opts.schema,
	})

	pub, err := output.NewPublication(artifact, result, renderOpts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	sinks := output.MultiSink{
		output.NewFileSink(opts.outDir),
		output.NewRedisSink(a.redis, a.cfg.Redis.Namespace, redis.TTLWeekly),
	}
	if opts.xlsx {
		sinks = append(sinks, output.NewExcelSink(opts.outDir))
	}

	locations, err := sinks.Publish(ctx, pub)
	if err != nil {
		return err
	}

	if !opts.noPrint {
		if _, err := stdout.Write(pub.Body); err != nil {
			return err
		}
	}
	for _, loc := range locations {
		fmt.Fprintf(stdout, "[OK] saved: %s\n", loc)
	}
	return nil
}

// parseDate parses --date (YYYY-MM-DD) in the market timezone
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD, e.g. 2025-11-05)", s)
	}
	return d, nil
}
