package commands

import (
	"fmt"

	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
)

// FlattenCmd implements the 'flatten' command.
type FlattenCmd struct {
	List bool `help:"Print every flattened file with its source"`
}

func (f *FlattenCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{})
	if err != nil {
		return err
	}
	run, err := p.Execute(g.ctx(), []pipeline.StageName{pipeline.StageFlatten})
	if err != nil {
		return err
	}
	if f.List {
		for _, target := range run.Media.Targets() {
			if _, err := fmt.Fprintf(g.out(), "%s\t%s\n", target, run.Media[target]); err != nil {
				return err
			}
		}
	}
	_, err = fmt.Fprintf(g.out(), "Flattened %d media files into %s\n", len(run.Media), p.Config().Build.MediaOutput)
	return err
}
