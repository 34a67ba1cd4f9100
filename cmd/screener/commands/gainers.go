package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/selection"
)

// gainersCmd represents the gainers command
var gainersCmd = &cobra.Command{
	Use:   "gainers",
	Short: "당일 상승 상위 N개 (전일 종가 기준 상승금액 포함)",
	Long: `최근 거래일(또는 --date 이전 최근 거래일)의 상승 상위 N개를 JSON으로 저장/출력합니다.

  compact : [rank, name, price, change, "pct%"]
  object  : {rank, name, price, change, pctChange}

상승금액은 전일 종가 대비로 계산하고, 전일 종가가 없으면 등락률로 역산합니다.
파일: <market>_top{N}_{sort}_{format}_<YYYY-MM-DD>.json / _latest.json

Example:
  go run ./cmd/screener gainers --top 20 --sort amount --format object
  go run ./cmd/screener gainers --date 2025-11-05 --schema --xlsx`,
	RunE: runGainers,
}

var gainersFlags struct {
	publishOptions
	top    int
	date   string
	sortBy string
	market string
}

func init() {
	rootCmd.AddCommand(gainersCmd)

	f := gainersCmd.Flags()
	f.StringVar(&gainersFlags.outDir, "out", "out", "JSON 저장 폴더")
	f.IntVar(&gainersFlags.top, "top", 10, "Top N")
	f.StringVar(&gainersFlags.format, "format", "compact", "compact | object")
	f.BoolVar(&gainersFlags.schema, "schema", false, "compact 포맷일 때 헤더 스키마 포함")
	f.IntVar(&gainersFlags.decimals, "decimals", 1, "퍼센트 소수 자리수")
	f.BoolVar(&gainersFlags.noPrint, "no-print", false, "STDOUT 출력 생략")
	f.StringVar(&gainersFlags.date, "date", "", "기준 날짜 (YYYY-MM-DD), 없으면 최근 거래일")
	f.StringVar(&gainersFlags.sortBy, "sort", selection.SortByPct, "정렬 기준: pct | amount")
	f.StringVar(&gainersFlags.market, "market", string(contracts.MarketKOSPI), "KOSPI | KOSDAQ")
	f.BoolVar(&gainersFlags.xlsx, "xlsx", false, "엑셀(.xlsx) 파일도 저장")
}

func runGainers(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	params, err := a.params()
	if err != nil {
		return err
	}
	params.Limit = gainersFlags.top
	params.SortBy = gainersFlags.sortBy
	if params.Market, err = contracts.ParseMarket(gainersFlags.market); err != nil {
		return err
	}
	if params.AsOf, err = parseDate(gainersFlags.date, a.cfg.Location()); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	return runAndPublish(cmd.Context(), a, cmd.OutOrStdout(), selection.ScreenGainers, params, gainersFlags.publishOptions)
}
