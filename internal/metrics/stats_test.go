package metrics

import (
	"encoding/json"
	"testing"

	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/umami"
)

func decode(t *testing.T, body string) umami.RawStats {
	t.Helper()
	raw, err := umami.DecodeStats([]byte(body))
	if err != nil {
		t.Fatalf("failed to decode %s: %v", body, err)
	}
	return raw
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		body string
		want SiteStats
	}{
		{
			name: "Empty",
			body: `{}`,
			want: SiteStats{},
		},
		{
			name: "FullRecord",
			body: `{"pageviews": 1234, "visitors": 56, "visits": 78, "bounces": 9, "totaltime": 3600}`,
			want: SiteStats{Pageviews: 1234, Visitors: 56, Visits: 78, Bounces: 9, TotalTime: 3600},
		},
		{
			name: "PageviewDigitString",
			body: `{"pageViews": "42"}`,
			want: SiteStats{Pageviews: 42},
		},
		{
			name: "PageviewPriority",
			body: `{"views": 3, "pageViews": 2, "page_views_count": 1}`,
			want: SiteStats{Pageviews: 2},
		},
		{
			name: "PageviewSkipsNullAndGarbage",
			body: `{"pageviews": null, "pageViews": "n/a", "views": {"value": 1}, "page_views": 11}`,
			want: SiteStats{Pageviews: 11},
		},
		{
			name: "PageviewFloatTruncated",
			body: `{"pageviews": 12.9}`,
			want: SiteStats{Pageviews: 12},
		},
		{
			name: "ComparisonFallback",
			body: `{"comparison": {"views": 7}}`,
			want: SiteStats{Pageviews: 7},
		},
		{
			name: "ComparisonWhenTopLevelZero",
			body: `{"pageviews": 0, "comparison": {"pageviews": 5}}`,
			want: SiteStats{Pageviews: 5},
		},
		{
			name: "ComparisonIgnoresDigitStrings",
			body: `{"comparison": {"pageviews": "5"}}`,
			want: SiteStats{},
		},
		{
			name: "ComparisonNotUsedWhenTopLevelSet",
			body: `{"pageviews": 4, "comparison": {"pageviews": 5}}`,
			want: SiteStats{Pageviews: 4},
		},
		{
			name: "ComparisonNotAnObject",
			body: `{"comparison": [{"views": 7}]}`,
			want: SiteStats{},
		},
		{
			name: "OtherCountersRejectStrings",
			body: `{"visitors": "5", "visits": "6", "bounces": "1", "totaltime": "100"}`,
			want: SiteStats{},
		},
		{
			name: "NegativesAndBooleansAreZero",
			body: `{"pageviews": -3, "visitors": true, "visits": -1, "bounces": false}`,
			want: SiteStats{},
		},
		{
			name: "MergedArray",
			body: `[{"pageviews": 1, "visits": 2}, {"visits": 4, "totaltime": 40.5}]`,
			want: SiteStats{Pageviews: 1, Visits: 4, TotalTime: 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(decode(t, tt.body))
			if got != tt.want {
				t.Errorf("Extract(%s) = %+v, want %+v", tt.body, got, tt.want)
			}
		})
	}
}

func TestExtract_NativeValues(t *testing.T) {
	raw := umami.RawStats{
		"pageviews": float64(10),
		"visitors":  int(3),
		"visits":    int64(4),
		"bounces":   json.Number("1"),
	}
	got := Extract(raw)
	want := SiteStats{Pageviews: 10, Visitors: 3, Visits: 4, Bounces: 1}
	if got != want {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}

func TestExtract_Nil(t *testing.T) {
	if got := Extract(nil); got != (SiteStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}

func TestSiteStatsAdd(t *testing.T) {
	a := SiteStats{Pageviews: 1, Visitors: 2, Visits: 3, Bounces: 4, TotalTime: 5}
	b := SiteStats{Pageviews: 10, Visitors: 20, Visits: 30, Bounces: 40, TotalTime: 50}
	want := SiteStats{Pageviews: 11, Visitors: 22, Visits: 33, Bounces: 44, TotalTime: 55}
	if got := a.Add(b); got != want {
		t.Errorf("Add() = %+v, want %+v", got, want)
	}
}
