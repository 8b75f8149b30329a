package commands

import (
	"encoding/json"

	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
	"git.home.luguber.info/inful/contentbuilder/internal/report"
)

// EntitiesCmd implements the 'entities' command.
type EntitiesCmd struct {
	Format string `short:"f" help:"Output format (table|json)" enum:"table,json" default:"table"`
}

func (e *EntitiesCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{})
	if err != nil {
		return err
	}
	run, err := p.Execute(g.ctx(), pipeline.EnumeratePlan)
	if err != nil {
		return err
	}
	if e.Format == "json" {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(run.Entities)
	}
	report.WriteEntities(g.out(), run.Entities)
	return nil
}
