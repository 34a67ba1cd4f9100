package naver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/screener/internal/contracts"
)

// Name scrapes the display name of a ticker from its item page
func (c *Client) Name(ctx context.Context, ticker string) (string, error) {
	body, contentType, err := c.fetch(ctx, c.baseURL+"/item/main.naver?code="+ticker)
	if err != nil {
		return "", err
	}

	name, err := parseItemName(body, contentType)
	if err != nil {
		return "", fmt.Errorf("naver name %s: %w", ticker, err)
	}
	return name, nil
}

// parseItemName extracts the company name (종목명) from item/main HTML
func parseItemName(body []byte, contentType string) (string, error) {
	reader, err := decodeBody(body, contentType)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	if name := strings.TrimSpace(doc.Find(".wrap_company h2 a").First().Text()); name != "" {
		return name, nil
	}

	// <title>삼성전자 : 네이버페이 증권</title>
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if idx := strings.Index(title, ":"); idx > 0 {
		if name := strings.TrimSpace(title[:idx]); name != "" {
			return name, nil
		}
	}

	return "", contracts.ErrNameNotFound
}

// decodeBody converts EUC-KR pages to UTF-8
func decodeBody(body []byte, contentType string) (io.Reader, error) {
	if !isEUCKR(contentType, body) {
		return bytes.NewReader(body), nil
	}
	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("decode euc-kr: %w", err)
	}
	return bytes.NewReader(decoded), nil
}

func isEUCKR(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "euc-kr") || strings.Contains(ct, "cp949") {
		return true
	}
	if strings.Contains(ct, "utf-8") {
		return false
	}
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("euc-kr"))
}
