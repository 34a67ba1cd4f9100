package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/output"
	"github.com/wonny/screener/internal/selection"
)

// gainersSimpleCmd represents the gainers-simple command
var gainersSimpleCmd = &cobra.Command{
	Use:   "gainers-simple",
	Short: "당일 상승 종목 Top N (등락률 역산 상승금액)",
	Long: `최근 거래일 상승 종목 Top N을 compact 포맷 + schema로 저장/출력합니다.
상승금액 = 종가 × 등락률 / (100 + 등락률)

파일: kospi_top_gainers_with_change_<YYYY-MM-DD>.json / _latest.json

Example:
  go run ./cmd/screener gainers-simple --top 20`,
	RunE: runGainersSimple,
}

var gainersSimpleFlags struct {
	outDir string
	top    int
}

func init() {
	rootCmd.AddCommand(gainersSimpleCmd)

	gainersSimpleCmd.Flags().StringVar(&gainersSimpleFlags.outDir, "out", "out", "JSON 저장 폴더")
	gainersSimpleCmd.Flags().IntVar(&gainersSimpleFlags.top, "top", 10, "Top N")
}

func runGainersSimple(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	params, err := a.params()
	if err != nil {
		return err
	}
	params.Limit = gainersSimpleFlags.top

	return runAndPublish(cmd.Context(), a, cmd.OutOrStdout(), selection.ScreenGainersSimple, params, publishOptions{
		outDir:   gainersSimpleFlags.outDir,
		format:   string(output.FormatCompact),
		decimals: 1,
		schema:   true,
	})
}
