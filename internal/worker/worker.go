package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sun0225SUN/umami-report-to-telegram/config"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/metrics"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/timerange"
	"go.uber.org/zap"
)

var ErrNoSites = errors.New("no websites configured")

// Stage names the step of a run an error came from.
type Stage string

const (
	StageConfigValidation Stage = "config validation"
	StageAuthentication   Stage = "authentication"
	StageWindowResolution Stage = "window resolution"
	StagePerSiteFetch     Stage = "site fetch"
	StageDelivery         Stage = "delivery"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

type Collector interface {
	Collect(ctx context.Context, sites []config.Site, token string, window timerange.Window) []metrics.SiteResult
}

type Formatter interface {
	Format(results []metrics.SiteResult, window *timerange.Window) string
}

type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

type Worker struct {
	logger    *zap.Logger
	cfg       config.Config
	auth      Authenticator
	collector Collector
	formatter Formatter
	notifier  Notifier
	now       func() time.Time
}

func NewWorker(
	logger *zap.Logger,
	cfg config.Config,
	auth Authenticator,
	collector Collector,
	formatter Formatter,
	notifier Notifier,
) *Worker {
	return &Worker{
		logger:    logger,
		cfg:       cfg,
		auth:      auth,
		collector: collector,
		formatter: formatter,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run produces and delivers one report. Only per-site fetch failures are
// tolerated; anything else aborts the run.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", StageConfigValidation, err)
	}

	token, err := w.token(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", StageAuthentication, err)
	}

	window, err := timerange.Resolve(w.cfg.Period.StartAt, w.cfg.Period.EndAt, w.now())
	if err != nil {
		return fmt.Errorf("%s: %w", StageWindowResolution, err)
	}
	w.logWindow(window)

	sites := w.cfg.Sites
	if len(sites) == 0 {
		return fmt.Errorf("%s: %w", StagePerSiteFetch, ErrNoSites)
	}
	w.logger.Info("Processing websites", zap.Int("count", len(sites)), zap.String("api", w.cfg.Umami.ApiUrl))

	results := w.collector.Collect(ctx, sites, token, window)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		w.logger.Warn("Some websites have no data", zap.Int("failed", failed), zap.Int("total", len(results)))
	}

	message := w.formatter.Format(results, &window)

	w.logger.Info("Sending message to Telegram")
	if err := w.notifier.Send(ctx, w.cfg.Telegram.ChatId, message); err != nil {
		return fmt.Errorf("%s: %w", StageDelivery, err)
	}

	return nil
}

func (w *Worker) token(ctx context.Context) (string, error) {
	if w.cfg.HasStaticToken() {
		w.logger.Info("Using provided API token")
		return w.cfg.Umami.ApiToken, nil
	}

	w.logger.Info("Logging in to Umami", zap.String("user", w.cfg.Umami.User))
	token, err := w.auth.Authenticate(ctx, w.cfg.Umami.User, w.cfg.Umami.Password)
	if err != nil {
		return "", err
	}
	w.logger.Info("Successfully logged in and obtained token")
	return token, nil
}

func (w *Worker) logWindow(window timerange.Window) {
	if window.Defaulted {
		w.logger.Info("Fetching statistics for the last 24 hours")
		return
	}
	w.logger.Info("Fetching statistics",
		zap.Time("from", window.Start()),
		zap.Time("to", window.End()),
	)
}
