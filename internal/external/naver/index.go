package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/screener/internal/contracts"
)

// worldIndexSymbols maps summary index names to Naver world index codes
var worldIndexSymbols = map[string]string{
	"NASDAQ": ".IXIC",
}

// IndexCloses returns the most recent daily closes of an index, oldest first
func (c *Client) IndexCloses(ctx context.Context, index string, days int) ([]contracts.IndexClose, error) {
	index = strings.ToUpper(strings.TrimSpace(index))

	var (
		closes []contracts.IndexClose
		err    error
	)
	if symbol, ok := worldIndexSymbols[index]; ok {
		closes, err = c.worldIndexCloses(ctx, symbol)
	} else {
		closes, err = c.domesticIndexCloses(ctx, index, days)
	}
	if err != nil {
		return nil, err
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("naver index %s: %w", index, contracts.ErrNoData)
	}

	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })
	if days > 0 && len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

// domesticIndexCloses reads KOSPI/KOSDAQ from the same chart endpoint as tickers
func (c *Client) domesticIndexCloses(ctx context.Context, index string, days int) ([]contracts.IndexClose, error) {
	to := time.Now()
	// 휴장일을 감안해 달력일 기준으로 넉넉히 조회
	from := to.AddDate(0, 0, -(days*2 + 10))

	bars, err := c.sise(ctx, index, from, to)
	if err != nil {
		return nil, err
	}

	closes := make([]contracts.IndexClose, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		closes = append(closes, contracts.IndexClose{Date: b.Date, Close: b.Close})
	}
	return closes, nil
}

type worldIndexResponse struct {
	PriceInfos []struct {
		LocalDate  string      `json:"localDate"`
		ClosePrice interface{} `json:"closePrice"`
	} `json:"priceInfos"`
}

func (c *Client) worldIndexCloses(ctx context.Context, symbol string) ([]contracts.IndexClose, error) {
	fullURL := fmt.Sprintf("%s/chart/foreign/index/%s?periodType=dayCandle", c.apiURL, symbol)

	body, _, err := c.fetch(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	return parseWorldIndex(body)
}

func parseWorldIndex(body []byte) ([]contracts.IndexClose, error) {
	var resp worldIndexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode world index: %w", err)
	}

	closes := make([]contracts.IndexClose, 0, len(resp.PriceInfos))
	for _, p := range resp.PriceInfos {
		date, err := time.Parse("20060102", p.LocalDate)
		if err != nil {
			continue
		}
		v := toFloat(p.ClosePrice)
		if v <= 0 {
			continue
		}
		closes = append(closes, contracts.IndexClose{Date: date, Close: v})
	}
	return closes, nil
}
