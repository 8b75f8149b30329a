// Package report prints run summaries and listings as text tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/contentbuilder/internal/entity"
	"git.home.luguber.info/inful/contentbuilder/internal/history"
	"git.home.luguber.info/inful/contentbuilder/internal/render"
)

// StageTiming is the wall time of one pipeline stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
	Skipped  bool
}

// Run is everything the final report shows about one run.
type Run struct {
	ID           string
	Outcome      string
	Stages       []StageTiming
	TrackedFiles int
	MediaFiles   int
	Entities     int
	Render       render.Summary
	Failures     []render.Result
}

func newWriter(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// WriteRun prints the run summary, stage timings and render failures.
func WriteRun(w io.Writer, r Run) {
	summary := newWriter(w)
	summary.SetTitle("Run " + r.ID)
	summary.AppendRows([]table.Row{
		{"Outcome", r.Outcome},
		{"Tracked files", r.TrackedFiles},
		{"Media files", r.MediaFiles},
		{"Entities", r.Entities},
		{"Rendered", r.Render.Succeeded - r.Render.Skipped},
		{"Up to date", r.Render.Skipped},
		{"Failed", r.Render.Failed},
	})
	summary.Render()

	stages := newWriter(w)
	stages.AppendHeader(table.Row{"Stage", "Duration"})
	var total time.Duration
	for _, s := range r.Stages {
		if s.Skipped {
			stages.AppendRow(table.Row{s.Name, "skipped"})
			continue
		}
		total += s.Duration
		stages.AppendRow(table.Row{s.Name, formatDuration(s.Duration)})
	}
	stages.AppendFooter(table.Row{"Total", formatDuration(total)})
	stages.Render()

	if len(r.Failures) == 0 {
		return
	}
	failures := newWriter(w)
	failures.SetTitle("Render failures")
	failures.AppendHeader(table.Row{"Entity", "URL", "Error"})
	for _, f := range r.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		failures.AppendRow(table.Row{f.EntitySlug, f.SourceURL, msg})
	}
	failures.Render()
}

// WriteEntities lists entities in enumeration order.
func WriteEntities(w io.Writer, entities []entity.Entity) {
	t := newWriter(w)
	t.AppendHeader(table.Row{"#", "Type", "URL", "Title", "Artifact"})
	for i, e := range entities {
		url := e.URL
		if e.IsExternal && e.Link != "" {
			url = e.Link
		}
		t.AppendRow(table.Row{i + 1, string(e.Type), url, e.Title, e.Slug})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(entities)})
	t.Render()
}

// WriteRuns lists recorded runs, newest first.
func WriteRuns(w io.Writer, runs []history.RunRecord) {
	t := newWriter(w)
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Outcome", "Entities", "Succeeded", "Failed", "Skipped"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			formatDuration(r.FinishedAt.Sub(r.StartedAt)),
			r.Outcome,
			r.Entities,
			r.Succeeded,
			r.Failed,
			r.Skipped,
		})
	}
	t.Render()
}

// WriteResults lists the per-entity results of one recorded run.
func WriteResults(w io.Writer, results []history.ResultRecord) {
	t := newWriter(w)
	t.AppendHeader(table.Row{"Entity", "URL", "Status", "Duration", "Error"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Slug, r.URL, status(r.Success, r.Skipped), formatDuration(r.Duration), r.Error})
	}
	t.Render()
}

func status(success, skipped bool) string {
	switch {
	case !success:
		return "failed"
	case skipped:
		return "up to date"
	default:
		return "rendered"
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}
