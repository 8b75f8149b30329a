package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/config"
	"git.home.luguber.info/inful/contentbuilder/internal/daemon"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
	"git.home.luguber.info/inful/contentbuilder/internal/report"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Quiet time.Duration `help:"Time without changes before a run starts" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{})
	if err != nil {
		return err
	}
	cfg := p.Config()

	task := localRunTask(g, p, root.Verbose)
	task(g.ctx())

	watcher, err := daemon.NewWatcher(daemon.WatcherOptions{
		Roots:       p.MediaRoots(),
		Ignore:      []string{config.Resolve(p.Root(), cfg.Build.MediaOutput), config.Resolve(p.Root(), cfg.Build.ArtifactDir)},
		QuietWindow: w.Quiet,
	}, task)
	if err != nil {
		return err
	}
	return watcher.Run(g.ctx())
}

// localRunTask runs the local plan once. Failures are reported and the
// watcher keeps going.
func localRunTask(g *Global, p *pipeline.Pipeline, verbose bool) daemon.Task {
	adapter := foundationerrors.NewCLIErrorAdapter(verbose, slog.Default())
	return func(ctx context.Context) {
		run, err := p.Execute(ctx, pipeline.LocalPlan)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			adapter.Handle(err)
			return
		}
		report.WriteRun(g.out(), run.Report())
		slog.Info("Waiting for changes", logfields.RunID(run.ID))
	}
}
