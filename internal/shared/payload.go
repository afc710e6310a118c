package shared

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LookupAny: safe nested lookup with dot paths on maps.
func LookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// FirstString returns the first non-empty string found at paths, or "".
func FirstString(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := LookupAny(m, p).(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

// FirstDecimal: number from several paths (float64/int/json.Number/string like "8,50").
// Unparsable values are skipped.
func FirstDecimal(m map[string]any, paths ...string) (decimal.Decimal, bool) {
	for _, k := range paths {
		switch v := LookupAny(m, k).(type) {
		case float64:
			return decimal.NewFromFloat(v), true
		case int:
			return decimal.NewFromInt(int64(v)), true
		case int64:
			return decimal.NewFromInt(v), true
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d, true
			}
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

// FirstInt64: int64 from several paths (float64/int/json.Number/string).
func FirstInt64(m map[string]any, paths ...string) (int64, bool) {
	for _, k := range paths {
		switch v := LookupAny(m, k).(type) {
		case float64:
			return int64(v), true
		case int:
			return int64(v), true
		case int64:
			return v, true
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, true
			}
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// FirstBool accepts bools, 0/1 numbers and "true"/"false"/"1"/"0" strings.
func FirstBool(m map[string]any, paths ...string) (bool, bool) {
	for _, k := range paths {
		switch v := LookupAny(m, k).(type) {
		case bool:
			return v, true
		case float64:
			return v != 0, true
		case int:
			return v != 0, true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f != 0, true
			}
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// FirstDate parses YYYY-MM-DD (or an RFC 3339 timestamp) into a UTC calendar day.
func FirstDate(m map[string]any, paths ...string) (time.Time, bool) {
	for _, k := range paths {
		s, ok := LookupAny(m, k).(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			y, mo, d := t.Date()
			return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
