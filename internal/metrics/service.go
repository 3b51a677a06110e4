package metrics

import (
	"context"

	"github.com/sun0225SUN/umami-report-to-telegram/config"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/timerange"
	"go.uber.org/zap"
)

// SiteResult is the outcome of collecting one site. A nil Stats means no data
// could be fetched and Err says why.
type SiteResult struct {
	Site  config.Site
	Stats *SiteStats
	Err   error
}

func (r SiteResult) OK() bool {
	return r.Stats != nil
}

type ServiceMetrics struct {
	logger     *zap.Logger
	repository Repository
}

func NewServiceMetrics(logger *zap.Logger, repository Repository) *ServiceMetrics {
	return &ServiceMetrics{
		logger:     logger,
		repository: repository,
	}
}

// Collect fetches every site in order. A failing site is recorded as a no-data
// result and does not stop the others.
func (s *ServiceMetrics) Collect(ctx context.Context, sites []config.Site, token string, window timerange.Window) []SiteResult {
	results := make([]SiteResult, 0, len(sites))
	for _, site := range sites {
		results = append(results, s.CollectSite(ctx, site, token, window))
	}
	return results
}

func (s *ServiceMetrics) CollectSite(ctx context.Context, site config.Site, token string, window timerange.Window) SiteResult {
	s.logger.Info("Fetching stats", zap.String("site", site.Label), zap.String("id", site.ID))

	raw, err := s.repository.FetchStats(ctx, site.ID, token, window)
	if err != nil {
		s.logger.Warn("Failed to fetch stats", zap.String("site", site.Label), zap.String("id", site.ID), zap.Error(err))
		return SiteResult{Site: site, Err: err}
	}

	stats := Extract(raw)
	s.logger.Info("Successfully fetched stats",
		zap.String("site", site.Label),
		zap.Int64("pageviews", stats.Pageviews),
		zap.Int64("visitors", stats.Visitors),
		zap.Int64("visits", stats.Visits),
	)
	return SiteResult{Site: site, Stats: &stats}
}
