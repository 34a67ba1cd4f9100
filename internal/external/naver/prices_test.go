package naver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/httputil"
	"github.com/wonny/screener/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{Provider: config.ProviderConfig{
		NaverBaseURL:  server.URL,
		NaverChartURL: server.URL,
		NaverAPIURL:   server.URL,
		RateLimit:     100,
		RateBurst:     10,
		Timeout:       5 * time.Second,
	}}
	httpClient := httputil.New(cfg, logger.Nop()).DisableRetry().WithoutLocalLimit()
	return NewClient(httpClient, logger.Nop(), cfg.Provider)
}

const siseBody = `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율'],
["20240115", 72300, 73000, 72000, 72500, 1000000, 52.1],
["20240116", 72500, 73500, 72300, 73000, 1200000, 52.2]
]
`

func TestHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/siseJson.naver", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "005930", q.Get("symbol"))
		assert.Equal(t, "20240101", q.Get("startTime"))
		assert.Equal(t, "20240131", q.Get("endTime"))
		assert.Equal(t, "day", q.Get("timeframe"))
		_, _ = w.Write([]byte(siseBody))
	})
	c := newTestClient(t, mux)

	bars, err := c.History(context.Background(), "005930",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 72500.0, bars[0].Close)
	assert.Equal(t, int64(1200000), bars[1].Volume)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), bars[1].Date)
}

func TestHistory_Empty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[['날짜', '시가', '고가', '저가', '종가', '거래량']]`))
	}))

	_, err := c.History(context.Background(), "999999", time.Now().AddDate(0, 0, -5), time.Now())
	assert.True(t, errors.Is(err, contracts.ErrNoData))
}

func TestParseSiseResponse_RegexFallback(t *testing.T) {
	// trailing comma breaks JSON decoding
	body := `[['날짜','시가','고가','저가','종가','거래량'],["20240115", 2500.5, 2510.25, 2490.0, 2505.75, 400000],]`

	bars, err := parseSiseResponse(body)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2505.75, bars[0].Close)
	assert.Equal(t, int64(400000), bars[0].Volume)
}

func TestParseSiseJSON_SkipsShortRows(t *testing.T) {
	bars := parseSiseJSON([][]interface{}{
		{"날짜", "시가"},
		{"20240115", 72300.0, 73000.0},
		{"bad-date", 1.0, 1.0, 1.0, 1.0, 1.0},
		{"20240116", "72,500", "73,500", "72,300", "73,000", "1200000"},
	})
	require.Len(t, bars, 1)
	assert.Equal(t, 73000.0, bars[0].Close)
}

func TestName_UTF8(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/item/main.naver", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "005930", r.URL.Query().Get("code"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>삼성전자 : 네이버페이 증권</title></head>
<body><div class="wrap_company"><h2><a href="#">삼성전자</a></h2></div></body></html>`))
	})
	c := newTestClient(t, mux)

	name, err := c.Name(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, "삼성전자", name)
}

func TestName_EUCKRTitleFallback(t *testing.T) {
	page := `<html><head><meta charset="euc-kr"><title>SK하이닉스 : 네이버 금융</title></head><body></body></html>`
	encoded, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(page))
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(encoded)
	}))

	name, err := c.Name(context.Background(), "000660")
	require.NoError(t, err)
	assert.Equal(t, "SK하이닉스", name)
}

func TestName_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>없음</body></html>`))
	}))

	_, err := c.Name(context.Background(), "000000")
	assert.True(t, errors.Is(err, contracts.ErrNameNotFound))
}

func TestIndexCloses_Domestic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/siseJson.naver", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KOSPI", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`[['날짜','시가','고가','저가','종가','거래량'],
["20240112", 2500.0, 2510.0, 2490.0, 2525.05, 400000],
["20240115", 2520.0, 2530.0, 2500.0, 2500.00, 410000],
["20240111", 2480.0, 2500.0, 2470.0, 2490.10, 390000]]`))
	})
	c := newTestClient(t, mux)

	closes, err := c.IndexCloses(context.Background(), "kospi", 2)
	require.NoError(t, err)
	require.Len(t, closes, 2)
	assert.Equal(t, 2525.05, closes[0].Close)
	assert.Equal(t, 2500.0, closes[1].Close)
}

func TestIndexCloses_World(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chart/foreign/index/.IXIC", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dayCandle", r.URL.Query().Get("periodType"))
		_, _ = w.Write([]byte(`{"priceInfos":[
			{"localDate":"20240111","closePrice":"14,970.19"},
			{"localDate":"20240112","closePrice":14972.76}
		]}`))
	})
	c := newTestClient(t, mux)

	closes, err := c.IndexCloses(context.Background(), "NASDAQ", 5)
	require.NoError(t, err)
	require.Len(t, closes, 2)
	assert.Equal(t, 14970.19, closes[0].Close)
	assert.Equal(t, 14972.76, closes[1].Close)
}

func TestIndexCloses_NoData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"priceInfos":[]}`))
	}))

	_, err := c.IndexCloses(context.Background(), "NASDAQ", 5)
	assert.True(t, errors.Is(err, contracts.ErrNoData))
}
