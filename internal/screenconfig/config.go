package screenconfig

import (
	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/selection"
)

// Config는 스크리너 기본값과 스케줄 작업 설정
type Config struct {
	Defaults  Defaults  `yaml:"defaults" json:"defaults"`
	Output    Output    `yaml:"output" json:"output"`
	Scheduler Scheduler `yaml:"scheduler" json:"scheduler"`
}

// Defaults 스크린 공통 파라미터 (HTTP 쿼리/CLI 플래그 미지정 시 사용)
type Defaults struct {
	Market        string  `yaml:"market" json:"market"`
	Limit         int     `yaml:"limit" json:"limit"`
	MinPrice      float64 `yaml:"min_price" json:"min_price"`
	PlungePct     float64 `yaml:"plunge_pct" json:"plunge_pct"`
	LookbackDays  int     `yaml:"lookback_days" json:"lookback_days"`
	TopNMarketCap int     `yaml:"top_n_mc" json:"top_n_mc"`
	WindowDays    int     `yaml:"window_days" json:"window_days"`
	SortBy        string  `yaml:"sort" json:"sort"`
}

// Output 파일 출력 기본값
type Output struct {
	Dir      string `yaml:"dir" json:"dir"`
	Format   string `yaml:"format" json:"format"`
	Decimals int    `yaml:"decimals" json:"decimals"`
	Schema   bool   `yaml:"schema" json:"schema"`
}

// Scheduler 일일 발행 작업 목록
type Scheduler struct {
	Jobs []JobSpec `yaml:"jobs" json:"jobs"`
}

// JobSpec 하나의 cron 작업 (초 단위 포함 6필드)
type JobSpec struct {
	Name     string   `yaml:"name" json:"name"`
	Schedule string   `yaml:"schedule" json:"schedule"`
	Screens  []string `yaml:"screens" json:"screens"`
	Market   string   `yaml:"market" json:"market"`
	Top      int      `yaml:"top" json:"top"`
}

// Default returns the built-in configuration used when no file is given
func Default() *Config {
	p := selection.DefaultParams()
	return &Config{
		Defaults: Defaults{
			Market:        string(p.Market),
			Limit:         p.Limit,
			MinPrice:      p.MinPrice,
			PlungePct:     p.PlungePct,
			LookbackDays:  p.LookbackDays,
			TopNMarketCap: p.TopNMarketCap,
			WindowDays:    p.WindowDays,
			SortBy:        p.SortBy,
		},
		Output: Output{
			Dir:      "out",
			Format:   "compact",
			Decimals: 1,
		},
		Scheduler: Scheduler{
			Jobs: []JobSpec{{
				Name:     "daily-publish",
				Schedule: "0 40 15 * * 1-5", // 장 마감 후 (KST 15:40)
				Screens:  []string{selection.ScreenGainers, selection.ScreenConsecutive},
				Market:   string(contracts.MarketKOSPI),
				Top:      10,
			}},
		},
	}
}

// Params converts the defaults into engine parameters
func (c *Config) Params() (selection.Params, error) {
	market, err := contracts.ParseMarket(c.Defaults.Market)
	if err != nil {
		return selection.Params{}, err
	}
	p := selection.Params{
		Market:        market,
		Limit:         c.Defaults.Limit,
		MinPrice:      c.Defaults.MinPrice,
		PlungePct:     c.Defaults.PlungePct,
		LookbackDays:  c.Defaults.LookbackDays,
		TopNMarketCap: c.Defaults.TopNMarketCap,
		WindowDays:    c.Defaults.WindowDays,
		SortBy:        c.Defaults.SortBy,
	}
	return p, p.Validate()
}

// Job returns the job spec by name
func (c *Config) Job(name string) (JobSpec, bool) {
	for _, j := range c.Scheduler.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return JobSpec{}, false
}
