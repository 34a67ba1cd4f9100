package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/httputil"
	"github.com/wonny/screener/pkg/logger"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string // finance.naver.com
	chartURL   string // fchart.stock.naver.com
	apiURL     string // api.stock.naver.com
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.ProviderConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    orDefault(cfg.NaverBaseURL, "https://finance.naver.com"),
		chartURL:   orDefault(cfg.NaverChartURL, "https://fchart.stock.naver.com"),
		apiURL:     orDefault(cfg.NaverAPIURL, "https://api.stock.naver.com"),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}

// fetch performs a GET with browser headers and returns the body and content type
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response body failed: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
