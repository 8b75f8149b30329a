package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
)

// Task is one unit of scheduled or triggered work.
type Task func(ctx context.Context)

// Scheduler wraps a gocron scheduler running one task on a fixed interval.
// A tick that arrives while the previous run is still going is dropped.
type Scheduler struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	task      Task
}

// NewScheduler creates a scheduler for task every interval.
func NewScheduler(interval time.Duration, task Task) (*Scheduler, error) {
	if interval <= 0 {
		return nil, foundationerrors.ValidationError("schedule interval must be > 0").
			WithContext("interval", interval.String()).
			Build()
	}
	if task == nil {
		return nil, foundationerrors.ValidationError("scheduled task is required").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, interval: interval, task: task}, nil
}

// Run schedules the task, starting immediately, and blocks until ctx is
// done. It then waits for a running task to return.
func (s *Scheduler) Run(ctx context.Context) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.task(ctx) }),
		gocron.WithName("pipeline-run"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled job: %w", err)
	}

	slog.Info("Starting scheduler", slog.String("interval", s.interval.String()), slog.String("job_id", job.ID().String()))
	s.scheduler.Start()

	<-ctx.Done()
	slog.Info("Stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}
