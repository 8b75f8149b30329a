package commands

import (
	"git.home.luguber.info/inful/contentbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/history"
	"git.home.luguber.info/inful/contentbuilder/internal/report"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	RunID string `arg:"" optional:"" name:"run" help:"Show the per-entity results of this run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return foundationerrors.ConfigError("run history is not configured").
			WithContext("field", "history.path").
			Build()
	}

	store, err := history.Open(config.Resolve(root.Root, cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.RunID != "" {
		results, err := store.Results(g.ctx(), h.RunID)
		if err != nil {
			return err
		}
		report.WriteResults(g.out(), results)
		return nil
	}

	runs, err := store.Runs(g.ctx(), h.Limit)
	if err != nil {
		return err
	}
	report.WriteRuns(g.out(), runs)
	return nil
}
