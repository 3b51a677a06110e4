package metrics

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/umami"
)

// Field names tried for the pageview count, in priority order.
var (
	pageviewFields           = []string{"pageviews", "pageViews", "views", "page_views", "page_views_count"}
	comparisonPageviewFields = []string{"pageviews", "pageViews", "views"}
)

type SiteStats struct {
	Pageviews int64
	Visitors  int64
	Visits    int64
	Bounces   int64
	TotalTime int64 // seconds
}

// Add returns the field-wise sum of s and o.
func (s SiteStats) Add(o SiteStats) SiteStats {
	return SiteStats{
		Pageviews: s.Pageviews + o.Pageviews,
		Visitors:  s.Visitors + o.Visitors,
		Visits:    s.Visits + o.Visits,
		Bounces:   s.Bounces + o.Bounces,
		TotalTime: s.TotalTime + o.TotalTime,
	}
}

// Extract reads the canonical counters out of a raw stats mapping. Missing or
// malformed values count as zero.
//
// Only the pageview count accepts digit-only strings; the other counters must
// be JSON numbers.
func Extract(raw umami.RawStats) SiteStats {
	stats := SiteStats{
		Pageviews: resolvePageviews(raw, pageviewFields, true),
		Visitors:  numeric(raw["visitors"]),
		Visits:    numeric(raw["visits"]),
		Bounces:   numeric(raw["bounces"]),
		TotalTime: numeric(raw["totaltime"]),
	}

	if stats.Pageviews == 0 {
		if comparison, ok := raw["comparison"].(map[string]any); ok {
			stats.Pageviews = resolvePageviews(comparison, comparisonPageviewFields, false)
		}
	}

	return stats
}

func resolvePageviews(raw map[string]any, fields []string, allowDigits bool) int64 {
	for _, field := range fields {
		val, present := raw[field]
		if !present || val == nil {
			continue
		}
		if n, ok := toInt(val); ok {
			return n
		}
		if s, ok := val.(string); ok && allowDigits && isDigits(s) {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func numeric(val any) int64 {
	n, _ := toInt(val)
	return n
}

// toInt reports whether val is a JSON number and returns it truncated toward
// zero, with negatives and out-of-range values clamped to 0.
func toInt(val any) (int64, bool) {
	var f float64
	switch v := val.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clamp(n), true
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case int:
		return clamp(int64(v)), true
	case int64:
		return clamp(v), true
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f >= math.MaxInt64 {
		return 0, true
	}
	return int64(f), true
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
