package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/api"
	"github.com/wonny/screener/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `스크린 REST API 서버를 시작합니다.
요청마다 거래일 탐색부터 다시 조회합니다 (캐시 없음).

Endpoints:
  GET /health                  - Health check
  GET /screen/{name}           - 스크린 결과 (limit, min_price, plunge_pct, lookback_days, top_n_mc, market)
  GET /market/summary          - KOSPI/KOSDAQ/NASDAQ 현황
  GET /ws/screen/{name}        - 웹소켓 주기 푸시 (interval)

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiWSRefresh time.Duration
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: $PORT 또는 8080)")
	apiCmd.Flags().DurationVar(&apiWSRefresh, "ws-refresh", time.Minute, "웹소켓 기본 갱신 주기")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	defaults, err := a.params()
	if err != nil {
		return err
	}

	a.log.WithFields(map[string]interface{}{
		"port":    a.cfg.Port,
		"env":     a.cfg.Env,
		"screens": a.engine.ScreenNames(),
	}).Info("Initializing API server")

	screenHandler := handlers.NewScreenHandler(a.engine, a.provider, defaults, a.log)
	router := api.NewRouter(screenHandler, apiWSRefresh, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(os.Stderr, "Server running on http://localhost:%s (Ctrl+C to stop)\n", a.cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
