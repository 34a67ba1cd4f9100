package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/wonny/screener/internal/external"
	"github.com/wonny/screener/internal/screenconfig"
	"github.com/wonny/screener/internal/selection"
	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/logger"
	"github.com/wonny/screener/pkg/redis"
)

// app holds the wiring shared by every command
type app struct {
	cfg      *config.Config
	screens  *screenconfig.Config
	log      *logger.Logger
	redis    *redis.Client
	provider *external.Provider
	engine   *selection.Engine
}

// newApp loads config and builds provider + engine. CLI 커맨드는 로그를 stderr로 보낸다.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logOut == nil {
		logOut = os.Stdout
	}
	log := logger.NewWithWriter(cfg, logOut)

	path := screenConfigFile
	if path == "" {
		path = cfg.ScreenConfigPath
	}
	screens, err := screenconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load screen config: %w", err)
	}
	if path != "" {
		hash, _ := screenconfig.Hash(screens)
		log.WithFields(map[string]interface{}{
			"path": path,
			"hash": hash,
		}).Debug("Screen config loaded")
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	provider := external.NewProvider(cfg, rdb, log)
	engine := selection.NewEngine(provider, cfg.Location(), log)

	return &app{
		cfg:      cfg,
		screens:  screens,
		log:      log,
		redis:    rdb,
		provider: provider,
		engine:   engine,
	}, nil
}

// params returns the YAML defaults as engine parameters
func (a *app) params() (selection.Params, error) {
	return a.screens.Params()
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Redis close failed")
	}
}
