package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/httputil"
	"github.com/wonny/screener/pkg/logger"
)

// Client handles communication with the KRX 정보데이터시스템
// ⭐ SSOT: KRX 시장 데이터 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new KRX client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://data.krx.co.kr"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// KRX bld identifiers
const (
	bldAllOHLCV     = "dbms/MDC/STAT/standard/MDCSTAT01501" // 전종목 시세
	bldFundamentals = "dbms/MDC/STAT/standard/MDCSTAT03501" // 전종목 PER/PBR/배당수익률
)

// marketID maps a market to the KRX mktId
func marketID(m contracts.Market) (string, error) {
	switch m {
	case contracts.MarketKOSPI:
		return "STK", nil
	case contracts.MarketKOSDAQ:
		return "KSQ", nil
	default:
		return "", fmt.Errorf("unsupported market: %s", m)
	}
}

// krxResponse covers both payload keys KRX uses
type krxResponse struct {
	OutBlock1 []map[string]interface{} `json:"OutBlock_1"`
	Output    []map[string]interface{} `json:"output"`
}

func (r krxResponse) rows() []map[string]interface{} {
	if len(r.OutBlock1) > 0 {
		return r.OutBlock1
	}
	return r.Output
}

// post calls getJsonData.cmd with browser-like headers (KRX blocks bot requests)
func (c *Client) post(ctx context.Context, form url.Values) ([]map[string]interface{}, error) {
	endpoint := c.baseURL + "/comm/bldAttendant/getJsonData.cmd"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020101")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("KRX API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KRX API returned status %d: %s", resp.StatusCode, string(body[:min(200, len(body))]))
	}

	var apiResp krxResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		preview := string(body)
		if len(preview) > 500 {
			preview = preview[:500]
		}
		c.logger.WithField("response_preview", preview).Error("Failed to parse KRX response")
		return nil, fmt.Errorf("decode KRX response: %w", err)
	}

	return apiResp.rows(), nil
}

// Snapshot fetches every ticker's OHLCV/등락률/시가총액 for one date
func (c *Client) Snapshot(ctx context.Context, date time.Time, market contracts.Market) (*contracts.Snapshot, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}
	trdDd := date.Format("20060102")

	rows, err := c.post(ctx, url.Values{
		"bld":         {bldAllOHLCV},
		"locale":      {"ko_KR"},
		"mktId":       {mktID},
		"trdDd":       {trdDd},
		"share":       {"1"},
		"money":       {"1"},
		"csvxls_isNo": {"false"},
	})
	if err != nil {
		return nil, err
	}

	quotes := make([]contracts.Quote, 0, len(rows))
	traded := false
	for _, row := range rows {
		q := contracts.Quote{
			Ticker:    str(row, "ISU_SRT_CD"),
			Name:      str(row, "ISU_ABBRV"),
			Close:     parseKRXFloat(str(row, "TDD_CLSPRC")),
			Change:    parseKRXFloat(str(row, "CMPPREVDD_PRC")),
			PctChange: parseKRXFloat(str(row, "FLUC_RT")),
			Volume:    parseKRXNumber(str(row, "ACC_TRDVOL")),
			Value:     parseKRXNumber(str(row, "ACC_TRDVAL")),
			MarketCap: parseKRXNumber(str(row, "MKTCAP")),
			Shares:    parseKRXNumber(str(row, "LIST_SHRS")),
		}
		if q.Ticker == "" {
			continue
		}
		if q.Close > 0 {
			traded = true
		}
		quotes = append(quotes, q)
	}

	// 휴장일은 빈 응답이거나 전 종목 종가가 비어 있음
	if len(quotes) == 0 || !traded {
		return nil, fmt.Errorf("krx %s %s: %w", market, trdDd, contracts.ErrNoData)
	}

	c.logger.WithFields(map[string]interface{}{
		"market":     market,
		"trade_date": trdDd,
		"count":      len(quotes),
	}).Debug("Fetched KRX snapshot")

	return contracts.NewSnapshot(date, market, quotes), nil
}

// Fundamentals fetches PER/PBR/DIV for every ticker on one date
func (c *Client) Fundamentals(ctx context.Context, date time.Time, market contracts.Market) ([]contracts.Fundamental, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}
	trdDd := date.Format("20060102")

	rows, err := c.post(ctx, url.Values{
		"bld":         {bldFundamentals},
		"locale":      {"ko_KR"},
		"searchType":  {"1"},
		"mktId":       {mktID},
		"trdDd":       {trdDd},
		"csvxls_isNo": {"false"},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("krx fundamentals %s %s: %w", market, trdDd, contracts.ErrNoData)
	}

	funds := make([]contracts.Fundamental, 0, len(rows))
	for _, row := range rows {
		ticker := str(row, "ISU_SRT_CD")
		if ticker == "" {
			continue
		}
		funds = append(funds, contracts.Fundamental{
			Ticker: ticker,
			BPS:    parseKRXFloat(str(row, "BPS")),
			PER:    parseKRXFloat(str(row, "PER")),
			PBR:    parseKRXFloat(str(row, "PBR")),
			EPS:    parseKRXFloat(str(row, "EPS")),
			DIV:    parseKRXFloat(str(row, "DVD_YLD")),
			DPS:    parseKRXFloat(str(row, "DPS")),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"market":     market,
		"trade_date": trdDd,
		"count":      len(funds),
	}).Debug("Fetched KRX fundamentals")

	return funds, nil
}

func str(row map[string]interface{}, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// parseKRXNumber parses KRX number format (with commas) to int64
func parseKRXNumber(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

// parseKRXFloat parses KRX decimals; "-" and blanks become NaN
func parseKRXFloat(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
