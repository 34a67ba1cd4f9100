package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/screener/internal/contracts"
)

var siseRowRe = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// History fetches daily bars for a ticker from the fchart siseJson endpoint
// ⭐ SSOT: Naver 일봉 API 호출은 이 함수에서만
func (c *Client) History(ctx context.Context, ticker string, from, to time.Time) ([]contracts.DailyBar, error) {
	bars, err := c.sise(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("naver history %s: %w", ticker, contracts.ErrNoData)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched history")
	return bars, nil
}

func (c *Client) sise(ctx context.Context, symbol string, from, to time.Time) ([]contracts.DailyBar, error) {
	params := url.Values{
		"symbol":      {symbol},
		"requestType": {"1"},
		"startTime":   {from.Format("20060102")},
		"endTime":     {to.Format("20060102")},
		"timeframe":   {"day"},
	}
	fullURL := c.chartURL + "/siseJson.naver?" + params.Encode()

	body, _, err := c.fetch(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	bars, err := parseSiseResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	return bars, nil
}

// parseSiseResponse parses the quasi-JSON siseJson body (single quotes, trailing whitespace)
func parseSiseResponse(body string) ([]contracts.DailyBar, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parseSiseJSON(rawData), nil
	}

	// JSON이 깨진 응답은 정규식으로 복구
	return parseSiseRegex(body), nil
}

func parseSiseJSON(rawData [][]interface{}) []contracts.DailyBar {
	var bars []contracts.DailyBar
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		date, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		bars = append(bars, newBar(date, toFloat(row[1]), toFloat(row[2]), toFloat(row[3]), toFloat(row[4]), int64(toFloat(row[5]))))
	}
	return bars
}

func parseSiseRegex(body string) []contracts.DailyBar {
	var bars []contracts.DailyBar
	for _, m := range siseRowRe.FindAllStringSubmatch(body, -1) {
		date, err := time.Parse("20060102", m[1])
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(m[2], 64)
		high, _ := strconv.ParseFloat(m[3], 64)
		low, _ := strconv.ParseFloat(m[4], 64)
		closePrice, _ := strconv.ParseFloat(m[5], 64)
		volume, _ := strconv.ParseFloat(m[6], 64)
		bars = append(bars, newBar(date, open, high, low, closePrice, int64(volume)))
	}
	return bars
}

func newBar(date time.Time, open, high, low, closePrice float64, volume int64) contracts.DailyBar {
	return contracts.DailyBar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
		Value:  int64(closePrice) * volume,
	}
}

// toFloat converts JSON scalars to float64
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		return f
	default:
		return 0
	}
}
