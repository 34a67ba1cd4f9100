package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/pretty"

	"github.com/wonny/screener/internal/contracts"
)

// Format selects the item shape
type Format string

const (
	FormatCompact Format = "compact" // [rank, name, price, change, "pct%"]
	FormatObject  Format = "object"  // {rank, name, price, change, pctChange}
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCompact, FormatObject:
		return Format(s), nil
	default:
		return "", fmt.Errorf("format must be one of: compact, object (got %q)", s)
	}
}

// Rank keys
const (
	RankKey       = "rank"
	RankByStreak  = "rankByStreak"
	pctChangeName = "pctChange"
)

// Options controls envelope rendering
type Options struct {
	Format   Format
	Decimals int    // compact 모드 퍼센트 소수 자리수
	Schema   bool   // 스키마 헤더 포함
	RankKey  string // "rank" 또는 "rankByStreak"
}

// DefaultOptions mirrors the command defaults
func DefaultOptions() Options {
	return Options{
		Format:   FormatCompact,
		Decimals: 1,
		RankKey:  RankKey,
	}
}

// Envelope is the persisted/printed payload. Field order is fixed.
type Envelope struct {
	AsOf   string        `json:"asOf"`
	Market string        `json:"market"`
	Count  int           `json:"count"`
	Items  []interface{} `json:"items"`
	Schema []string      `json:"schema,omitempty"`
}

// Build renders a screen result into an envelope
// ⭐ SSOT: 출력 포맷 변환은 여기서만
func Build(res *contracts.ScreenResult, opts Options) *Envelope {
	rankKey := opts.RankKey
	if rankKey == "" {
		rankKey = RankKey
	}

	items := make([]interface{}, 0, res.Count())
	for _, r := range res.Records {
		if opts.Format == FormatObject {
			items = append(items, objectItem{rankKey: rankKey, rec: r})
			continue
		}
		items = append(items, []interface{}{
			r.Rank,
			r.Name,
			r.Price,
			r.Change,
			FormatPct(r.Metric, opts.Decimals),
		})
	}

	env := &Envelope{
		AsOf:   res.AsOf,
		Market: string(res.Market),
		Count:  len(items),
		Items:  items,
	}
	if opts.Schema {
		env.Schema = []string{rankKey, "name", "price", "change", pctChangeName}
	}
	return env
}

// FormatPct renders v with decimals places and a trailing %
func FormatPct(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

// objectItem marshals with a stable key order and a configurable rank key
type objectItem struct {
	rankKey string
	rec     contracts.RankedRecord
}

func (o objectItem) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fields := []struct {
		key   string
		value interface{}
	}{
		{o.rankKey, o.rec.Rank},
		{"name", o.rec.Name},
		{"price", o.rec.Price},
		{"change", o.rec.Change},
		{pctChangeName, o.rec.Metric},
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalNoEscape(f.key)
		if err != nil {
			return nil, err
		}
		v, err := marshalNoEscape(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Marshal encodes the envelope with 2-space indentation, one element per line,
// unescaped UTF-8 and a single trailing newline.
func Marshal(env *Envelope) ([]byte, error) {
	raw, err := marshalNoEscape(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	out := pretty.PrettyOptions(raw, &pretty.Options{Indent: "  ", Width: 0})
	out = bytes.TrimRight(out, "\n")
	return append(out, '\n'), nil
}
