package commands

import (
	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Concurrency int  `short:"n" help:"Override build.concurrency"`
	Quiet       bool `short:"q" help:"Do not print the run report"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{Progress: progressLogger()})
	if err != nil {
		return err
	}
	if r.Concurrency > 0 {
		p.Config().Build.Concurrency = r.Concurrency
	}
	plan := []pipeline.StageName{pipeline.StageIndex, pipeline.StageArticles, pipeline.StageEnumerate, pipeline.StageRender}
	return runPlan(g, p, plan, r.Quiet)
}
