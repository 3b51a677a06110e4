package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sun0225SUN/umami-report-to-telegram/config"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/telegram"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/umami"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/cron"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/metrics"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/report"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/worker"
	"go.uber.org/zap"
)

var errNoSchedule = errors.New("no schedule configured, set --cron or " + config.KeySchedule)

type app struct {
	v       *viper.Viper
	cfgFile string
	runNow  bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "umami-report",
		Short: "Send an Umami statistics report to Telegram",
		Long: `umami-report fetches visitor statistics for one or more Umami websites,
formats them into a single summary and posts it to a Telegram chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runOnce(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "human readable debug logging")
	rootCmd.PersistentFlags().String("start", "", "period start, epoch seconds/milliseconds or YYYY-MM-DD (or set "+config.KeyUmamiStartAt+")")
	rootCmd.PersistentFlags().String("end", "", "period end, epoch seconds/milliseconds or YYYY-MM-DD (or set "+config.KeyUmamiEndAt+")")

	a.v.BindPFlag(config.KeyDebug, rootCmd.PersistentFlags().Lookup("debug"))
	a.v.BindPFlag(config.KeyUmamiStartAt, rootCmd.PersistentFlags().Lookup("start"))
	a.v.BindPFlag(config.KeyUmamiEndAt, rootCmd.PersistentFlags().Lookup("end"))

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Send the report repeatedly on a cron schedule",
		Example: `  umami-report schedule --cron "0 9 * * *"
  umami-report schedule --cron "@every 6h" --run-now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScheduled(cmd.Context())
		},
	}
	scheduleCmd.Flags().String("cron", "", "cron expression, optional seconds field (or set "+config.KeySchedule+")")
	scheduleCmd.Flags().BoolVar(&a.runNow, "run-now", false, "send one report immediately on start")
	a.v.BindPFlag(config.KeySchedule, scheduleCmd.Flags().Lookup("cron"))

	rootCmd.AddCommand(scheduleCmd)
	return rootCmd
}

func (a *app) load() (config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return config.Config{}, nil, err
	}
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg := config.Read(a.v)

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newWorker(logger *zap.Logger, cfg config.Config) *worker.Worker {
	umamiClient := umami.NewClient(logger, cfg.Umami.ApiUrl)
	service := metrics.NewServiceMetrics(logger, umamiClient)
	telegramClient := telegram.NewClient(logger, cfg.Telegram.ApiUrl, cfg.Telegram.BotToken)
	return worker.NewWorker(logger, cfg, umamiClient, service, report.NewFormatter(), telegramClient)
}

func (a *app) runOnce(ctx context.Context) error {
	cfg, logger, err := a.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting Umami report")
	if err := newWorker(logger, cfg).Run(ctx); err != nil {
		logger.Error("Report failed", zap.Error(err))
		return err
	}
	logger.Info("Report sent")
	return nil
}

func (a *app) runScheduled(ctx context.Context) error {
	cfg, logger, err := a.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Schedule == "" {
		return errNoSchedule
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return err
	}

	s, err := cron.NewScheduler(logger, newWorker(logger, cfg), cfg.Schedule)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx, a.runNow); err != nil {
		return fmt.Errorf("failed to start cron scheduler: %w", err)
	}
	<-ctx.Done()

	logger.Info("Shutting down")
	s.Stop()
	return nil
}
