package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	screenConfigFile string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "KRX 일일 스크리너",
	Long: `KRX Daily Screener CLI

KOSPI/KOSDAQ 일별 시세로 상승률/하락률/거래량 급증/연속 상승 등
스크린을 계산해 JSON으로 출력하거나 HTTP로 제공합니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener gainers --top 10 --sort amount
  go run ./cmd/screener gainers-simple
  go run ./cmd/screener consecutive --format object
  go run ./cmd/screener api --port 8080
  go run ./cmd/screener scheduler start`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C/SIGTERM cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&screenConfigFile, "screens", "", "screen defaults YAML (default: $SCREEN_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
