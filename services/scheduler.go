package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is what the scheduler triggers on every tick.
type Runner interface {
	Run(ctx context.Context) (RunSummary, error)
}

// Scheduler triggers reminder runs on a cron schedule evaluated in a fixed
// time zone. A tick that fires while the previous run is still going is
// skipped.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string
	logger   *slog.Logger
	ctx      context.Context
}

func NewScheduler(runner Runner, schedule string, loc *time.Location, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Register adds the reminder job without starting the clock.
func (s *Scheduler) Register() (cron.EntryID, error) {
	id, err := s.cron.AddFunc(s.schedule, s.runJob)
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression %q: %w", s.schedule, err)
	}
	return id, nil
}

// Start registers the job and starts the scheduler. Runs are not cancelled
// when ctx is; Stop waits for an in-flight run instead.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = context.WithoutCancel(ctx)
	if _, err := s.Register(); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Reminder scheduler started", "schedule", s.schedule, "timezone", s.cron.Location().String())
	return nil
}

// Stop halts the scheduler. The returned context is done once any running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runJob() {
	summary, err := s.runner.Run(s.ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Warn("Previous reminder run still in progress, skipping tick")
	case err != nil:
		s.logger.Error("Error sending notifications", "run", summary.RunID, "error", err)
	default:
		s.logger.Info("Notifications sent and marked as sent", "run", summary.RunID, "sent", summary.Sent)
	}
}

// cronLogger routes robfig/cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
