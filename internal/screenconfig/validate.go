package screenconfig

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/output"
	"github.com/wonny/screener/internal/selection"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// cronParser matches the scheduler (cron.WithSeconds)
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Defaults ===
	if _, err := contracts.ParseMarket(cfg.Defaults.Market); err != nil {
		return ValidationError{"defaults.market", err.Error()}
	}
	if cfg.Defaults.Limit < 0 {
		return ValidationError{"defaults.limit", "must be >= 0"}
	}
	if cfg.Defaults.MinPrice < 0 {
		return ValidationError{"defaults.min_price", "must be >= 0"}
	}
	if cfg.Defaults.PlungePct > 0 {
		return ValidationError{"defaults.plunge_pct", "must be <= 0"}
	}
	if cfg.Defaults.LookbackDays < 1 {
		return ValidationError{"defaults.lookback_days", "must be >= 1"}
	}
	if cfg.Defaults.TopNMarketCap < 1 {
		return ValidationError{"defaults.top_n_mc", "must be >= 1"}
	}
	if cfg.Defaults.WindowDays < 2 {
		return ValidationError{"defaults.window_days", "must be >= 2"}
	}
	if cfg.Defaults.SortBy != selection.SortByPct && cfg.Defaults.SortBy != selection.SortByAmount {
		return ValidationError{"defaults.sort", "must be pct or amount"}
	}

	// === Output ===
	if cfg.Output.Dir == "" {
		return ValidationError{"output.dir", "required"}
	}
	if _, err := output.ParseFormat(cfg.Output.Format); err != nil {
		return ValidationError{"output.format", err.Error()}
	}
	if cfg.Output.Decimals < 0 || cfg.Output.Decimals > 6 {
		return ValidationError{"output.decimals", "must be in [0, 6]"}
	}

	// === Scheduler ===
	known := make(map[string]bool)
	for _, name := range selection.AllScreenNames() {
		known[name] = true
	}
	seen := make(map[string]bool)
	for i, job := range cfg.Scheduler.Jobs {
		field := fmt.Sprintf("scheduler.jobs[%d]", i)
		if job.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[job.Name] {
			return ValidationError{field + ".name", "duplicate job " + job.Name}
		}
		seen[job.Name] = true

		if _, err := cronParser.Parse(job.Schedule); err != nil {
			return ValidationError{field + ".schedule", err.Error()}
		}
		if len(job.Screens) == 0 {
			return ValidationError{field + ".screens", "at least one screen required"}
		}
		for _, s := range job.Screens {
			if !known[s] {
				return ValidationError{field + ".screens", "unknown screen " + s}
			}
		}
		if _, err := contracts.ParseMarket(job.Market); err != nil {
			return ValidationError{field + ".market", err.Error()}
		}
		if job.Top < 1 {
			return ValidationError{field + ".top", "must be >= 1"}
		}
	}

	return nil
}
