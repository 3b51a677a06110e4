package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner produces and delivers one report.
type Runner interface {
	Run(ctx context.Context) error
}

// Parser accepts standard five-field specs, an optional leading seconds
// field and descriptors such as @daily or @every 1h.
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Scheduler struct {
	cron   *cron.Cron
	chain  cron.Chain
	runner Runner
	logger *zap.Logger
	spec   string
	wg     sync.WaitGroup
}

func NewScheduler(logger *zap.Logger, runner Runner, spec string) (*Scheduler, error) {
	if _, err := Parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(cronLogger),
	)
	return &Scheduler{
		cron:   c,
		chain:  cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		runner: runner,
		logger: logger,
		spec:   spec,
	}, nil
}

// Start registers the report job and starts the scheduler. With runNow the
// first report is produced immediately in the background. Scheduled ticks
// are skipped while any run, the initial one included, is in progress.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	job := s.chain.Then(cron.FuncJob(func() { s.run(ctx) }))

	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return err
	}

	if runNow {
		s.logger.Info("Initial report run")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			job.Run()
		}()
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started", zap.String("schedule", s.spec))
	return nil
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Cron scheduler stopped")
}

// A failed run is logged and the schedule carries on.
func (s *Scheduler) run(ctx context.Context) {
	if err := s.runner.Run(ctx); err != nil {
		s.logger.Error("Report run failed", zap.Error(err))
		return
	}
	s.logger.Info("Report run completed")
}
