// Package scheduler runs the daily billing job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
)

// DefaultSpec runs the job every day at 02:00.
const DefaultSpec = "0 2 * * *"

// Job is the work performed on each tick.
type Job interface {
	// CompleteExpiredClasses retires classes whose last session has passed.
	CompleteExpiredClasses(ctx context.Context) (int64, error)

	// RunScheduledBilling generates the bills due under the ahead-billing rule.
	RunScheduledBilling(ctx context.Context) ([]*models.RunSummary, error)
}

// Scheduler wraps a cron runner holding the single daily billing entry.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	spec    string
	timeout time.Duration
	entry   cron.EntryID
}

// New creates a scheduler that runs job on the standard five-field cron spec,
// evaluated in loc. Each run is bounded by timeout; zero means no bound.
// Runs never overlap: a tick that fires while the previous run is still
// going is skipped.
func New(job Job, spec string, loc *time.Location, timeout time.Duration) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.UTC
	}
	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		job:     job,
		spec:    spec,
		timeout: timeout,
	}

	id, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid billing schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Billing scheduler started", "schedule", s.spec, "next_run", s.Next())
}

// Stop halts the schedule and waits for a running job to finish or for ctx
// to be done, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("Billing scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop billing scheduler: %w", ctx.Err())
	}
}

// Next returns the next time the job is due, or the zero time if the
// scheduler has not been started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce performs one run of the job: expired classes are completed first
// so they stop contributing, then scheduled billing runs. A failure in the
// first step is logged and billing still runs.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	slog.Info("Billing job started")

	if _, err := s.job.CompleteExpiredClasses(ctx); err != nil {
		slog.Error("Failed to complete expired classes", "error", err)
	}

	summaries, err := s.job.RunScheduledBilling(ctx)
	if err != nil {
		slog.Error("Failed to run scheduled billing", "error", err)
	}
	for _, summary := range summaries {
		if summary.ErrorCount > 0 {
			slog.Warn("Scheduled billing finished with errors",
				"month", summary.MonthYear,
				"failed", summary.ErrorCount,
				"errors", summary.Errors,
			)
		}
	}

	slog.Info("Billing job complete",
		"months", len(summaries),
		"duration", time.Since(start),
	)
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
