package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/store"
	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "결과 저장소(PostgreSQL) 관리",
}

var (
	dbInitCmd = &cobra.Command{
		Use:   "init",
		Short: "연결 확인 후 screener 스키마 생성",
		Long: `DATABASE_URL 로 연결해 Ping/Health Check 후 결과 테이블을 생성합니다 (idempotent).

Example:
  go run ./cmd/screener db init`,
		RunE: runDBInit,
	}

	dbLatestCmd = &cobra.Command{
		Use:   "latest [screen]",
		Short: "저장된 최신 스크린 결과 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  runDBLatest,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbLatestCmd)
}

func connectDB() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	fmt.Printf("Database URL: %s\n", redactURL(cfg.Database.URL))

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func runDBInit(cmd *cobra.Command, args []string) error {
	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Printf("Healthy: %v (response %v)\n", status.Healthy, status.ResponseTime)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	stats := db.Stats()
	fmt.Printf("Pool: total=%d idle=%d max=%d\n", stats.TotalConns, stats.IdleConns, stats.MaxConns)
	fmt.Println("[OK] schema ready")
	return nil
}

func runDBLatest(cmd *cobra.Command, args []string) error {
	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := store.NewRepository(db.Pool).LatestResult(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s %s as of %s (%d)\n", result.Screen, result.Market, result.AsOf, result.Count())
	for _, r := range result.Records {
		fmt.Printf("%3d  %-8s %-20s %10d %8d %8.2f\n", r.Rank, r.Ticker, r.Name, r.Price, r.Change, r.Metric)
	}
	return nil
}

// redactURL hides the password of a connection string
func redactURL(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
