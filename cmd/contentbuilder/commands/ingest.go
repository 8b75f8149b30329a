package commands

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
)

// IngestCmd implements the 'ingest' command.
type IngestCmd struct {
	JSON bool `help:"Print the tracked files as JSON"`
}

func (i *IngestCmd) Run(g *Global, root *CLI) error {
	p, err := newPipeline(root, pipeline.Options{})
	if err != nil {
		return err
	}
	run, err := p.Execute(g.ctx(), []pipeline.StageName{pipeline.StageIngest})
	if err != nil {
		return err
	}
	if i.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(run.Tracked)
	}
	_, err = fmt.Fprintf(g.out(), "Copied %d files from %d sources\n", len(run.Tracked), len(p.Config().Sources))
	return err
}
