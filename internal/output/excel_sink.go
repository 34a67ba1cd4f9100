package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExcelSink writes the ranked records to <prefix>_<suffix>_<YYYY-MM-DD>.xlsx
type ExcelSink struct {
	Dir string
}

// NewExcelSink creates an xlsx sink rooted at dir
func NewExcelSink(dir string) *ExcelSink {
	return &ExcelSink{Dir: dir}
}

// 엑셀 시트 이름 최대 31자
const maxSheetName = 31

// Publish writes one sheet: header row then one row per record
func (s *ExcelSink) Publish(ctx context.Context, pub *Publication) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := pub.Artifact.Name()
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"rank", "ticker", "name", "price", "change", "pctChange", "volume", "value"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range pub.Result.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{r.Rank, r.Ticker, r.Name, r.Price, r.Change, r.Metric, r.Volume, r.Value}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%s_%s.xlsx", pub.Artifact.Name(), pub.Envelope.AsOf))
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}
	return []string{path}, nil
}
