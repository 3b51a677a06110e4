package metrics

import (
	"context"

	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/umami"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/timerange"
)

// Repository is where raw website stats come from.
type Repository interface {
	FetchStats(ctx context.Context, siteID, token string, window timerange.Window) (umami.RawStats, error)
}
