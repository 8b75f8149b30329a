package commands

import (
	"fmt"

	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
	"git.home.luguber.info/inful/contentbuilder/internal/report"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SkipIngest bool `name:"skip-ingest" help:"Reuse the existing working trees instead of cloning sources"`
	Quiet      bool `short:"q" help:"Do not print the run report"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{SkipIngest: b.SkipIngest, Progress: progressLogger()})
	if err != nil {
		return err
	}
	return runPlan(g, p, pipeline.FullPlan, b.Quiet)
}

// runPlan executes plan and prints the report, also when the run failed.
func runPlan(g *Global, p *pipeline.Pipeline, plan []pipeline.StageName, quiet bool) error {
	run, err := p.Execute(g.ctx(), plan)
	if !quiet {
		report.WriteRun(g.out(), run.Report())
		for _, w := range run.Warnings {
			_, _ = fmt.Fprintf(g.out(), "warning: %v\n", w)
		}
	}
	return err
}
