package screenconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/selection"
)

func TestLoad_RepoFile(t *testing.T) {
	path := "../../config/screens.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "KOSPI", cfg.Defaults.Market)
	require.Len(t, cfg.Scheduler.Jobs, 2)

	job, ok := cfg.Job("daily-publish")
	require.True(t, ok)
	assert.Equal(t, []string{"gainers", "consecutive"}, job.Screens)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, selection.DefaultParams(), p)
}

func TestParse_PartialOverride(t *testing.T) {
	cfg, err := Parse([]byte("defaults:\n  limit: 25\n  market: KOSDAQ\n"))
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, contracts.MarketKOSDAQ, p.Market)
	// 미지정 필드는 기본값 유지
	assert.Equal(t, 1000.0, p.MinPrice)
	assert.Equal(t, 8, p.WindowDays)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("defaults:\n  limitt: 25\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"bad market", "defaults:\n  market: NYSE\n", "defaults.market"},
		{"positive plunge", "defaults:\n  plunge_pct: 3\n", "defaults.plunge_pct"},
		{"bad sort", "defaults:\n  sort: name\n", "defaults.sort"},
		{"bad format", "output:\n  format: csv\n", "output.format"},
		{"bad cron", "scheduler:\n  jobs:\n    - {name: x, schedule: 'every day', screens: [gainers], market: KOSPI, top: 10}\n", "scheduler.jobs[0].schedule"},
		{"unknown screen", "scheduler:\n  jobs:\n    - {name: x, schedule: '0 0 16 * * *', screens: [moonshot], market: KOSPI, top: 10}\n", "scheduler.jobs[0].screens"},
		{"duplicate job", "scheduler:\n  jobs:\n    - {name: x, schedule: '@daily', screens: [gainers], market: KOSPI, top: 1}\n    - {name: x, schedule: '@daily', screens: [gainers], market: KOSPI, top: 1}\n", "scheduler.jobs[1].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Defaults.Limit = 11
	h3, _ := Hash(changed)
	assert.NotEqual(t, h1, h3)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
