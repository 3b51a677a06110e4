package metrics_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sun0225SUN/umami-report-to-telegram/config"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/umami"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/metrics"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/timerange"
	"go.uber.org/zap/zaptest"
)

// fakeRepository stands in for the Umami client.
type fakeRepository struct {
	FetchFn func(ctx context.Context, siteID, token string, window timerange.Window) (umami.RawStats, error)
	calls   []string
}

func (f *fakeRepository) FetchStats(ctx context.Context, siteID, token string, window timerange.Window) (umami.RawStats, error) {
	f.calls = append(f.calls, siteID)
	if f.FetchFn != nil {
		return f.FetchFn(ctx, siteID, token, window)
	}
	return umami.RawStats{}, nil
}

func TestCollect_FailureDoesNotStopOthers(t *testing.T) {
	window := timerange.Window{StartMs: 1, EndMs: 2}
	repo := &fakeRepository{
		FetchFn: func(ctx context.Context, siteID, token string, w timerange.Window) (umami.RawStats, error) {
			if token != "tok" {
				t.Fatalf("expected token=tok, got %s", token)
			}
			if w != window {
				t.Fatalf("unexpected window %+v", w)
			}
			if siteID == "b" {
				return nil, umami.ErrFetch
			}
			return umami.RawStats{"pageviews": json.Number("5"), "visits": json.Number("2")}, nil
		},
	}

	svc := metrics.NewServiceMetrics(zaptest.NewLogger(t), repo)
	sites := []config.Site{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}}

	results := svc.Collect(context.Background(), sites, "tok", window)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if got := repo.calls; len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("expected sites fetched in order, got %v", got)
	}

	if !results[0].OK() || results[0].Stats.Pageviews != 5 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].OK() {
		t.Errorf("expected no-data marker for failed site, got %+v", results[1].Stats)
	}
	if !errors.Is(results[1].Err, umami.ErrFetch) {
		t.Errorf("expected ErrFetch recorded, got %v", results[1].Err)
	}
	if results[1].Site.Label != "B" {
		t.Errorf("expected site kept on failure, got %+v", results[1].Site)
	}
	if !results[2].OK() || results[2].Stats.Visits != 2 {
		t.Errorf("unexpected last result: %+v", results[2])
	}
}

func TestCollect_EmptyStatsAreNotNoData(t *testing.T) {
	svc := metrics.NewServiceMetrics(zaptest.NewLogger(t), &fakeRepository{})

	res := svc.CollectSite(context.Background(), config.Site{ID: "a", Label: "a"}, "tok", timerange.Window{})
	if !res.OK() {
		t.Fatal("expected data for an empty but successful response")
	}
	if *res.Stats != (metrics.SiteStats{}) {
		t.Errorf("expected zero stats, got %+v", *res.Stats)
	}
}

func TestCollect_NoSites(t *testing.T) {
	repo := &fakeRepository{}
	svc := metrics.NewServiceMetrics(zaptest.NewLogger(t), repo)

	results := svc.Collect(context.Background(), nil, "tok", timerange.Window{})
	if len(results) != 0 || len(repo.calls) != 0 {
		t.Errorf("expected nothing fetched, got %d results and %d calls", len(results), len(repo.calls))
	}
}
