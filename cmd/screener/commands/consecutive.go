package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/selection"
)

// consecutiveCmd represents the consecutive command
var consecutiveCmd = &cobra.Command{
	Use:   "consecutive",
	Short: "연속 상승일수 랭킹",
	Long: `최근 8 거래일 종가로 연속 상승일수(streak)를 계산해 streak ↓, 등락률 ↓ 순으로 정렬합니다.

  compact : [rankByStreak, name, price, change, "pct%"] (+ schema)
  object  : {rankByStreak, name, price, change, pctChange}

파일: consecutive_ranked_<YYYY-MM-DD>.json / _latest.json

Example:
  go run ./cmd/screener consecutive --top 30 --decimals 2`,
	RunE: runConsecutive,
}

var consecutiveFlags struct {
	publishOptions
	top int
}

func init() {
	rootCmd.AddCommand(consecutiveCmd)

	f := consecutiveCmd.Flags()
	f.StringVar(&consecutiveFlags.outDir, "out", "out", "JSON 저장 폴더")
	f.IntVar(&consecutiveFlags.top, "top", 10, "Top N")
	f.StringVar(&consecutiveFlags.format, "format", "compact", "compact | object")
	f.IntVar(&consecutiveFlags.decimals, "decimals", 1, "퍼센트 소수 자리수")
}

func runConsecutive(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	params, err := a.params()
	if err != nil {
		return err
	}
	params.Limit = consecutiveFlags.top

	return runAndPublish(cmd.Context(), a, cmd.OutOrStdout(), selection.ScreenConsecutive, params, consecutiveFlags.publishOptions)
}
