package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/daemon"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Every time.Duration `help:"Interval between runs" default:"1h"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{})
	if err != nil {
		return err
	}
	adapter := foundationerrors.NewCLIErrorAdapter(root.Verbose, slog.Default())

	scheduler, err := daemon.NewScheduler(s.Every, func(ctx context.Context) {
		run, err := p.Execute(ctx, pipeline.FullPlan)
		if err != nil {
			if ctx.Err() == nil {
				adapter.Handle(err)
			}
			return
		}
		sum := run.Summary()
		slog.Info("Scheduled run finished",
			logfields.RunID(run.ID),
			slog.String("outcome", string(run.Outcome)),
			slog.Int("failed", sum.Failed))
	})
	if err != nil {
		return err
	}
	return scheduler.Run(g.ctx())
}
