package pipeline

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/contentbuilder/internal/articles"
	"git.home.luguber.info/inful/contentbuilder/internal/entity"
	"git.home.luguber.info/inful/contentbuilder/internal/ingest"
	"git.home.luguber.info/inful/contentbuilder/internal/media"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
	"git.home.luguber.info/inful/contentbuilder/internal/reference"
	"git.home.luguber.info/inful/contentbuilder/internal/render"
	"git.home.luguber.info/inful/contentbuilder/internal/report"
)

// Run is the state of one pipeline invocation.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Outcome  metrics.ResultLabel

	Tracked      []ingest.TrackedFile
	Media        media.Records
	Index        *reference.Index
	Articles     *articles.Store
	ArticleCount int
	Entities     []entity.Entity
	Results      []render.Result
	Rendered     bool

	Stages       []report.StageTiming
	ManifestPath string
	ManifestHash string
	// Warnings collects post-render step failures; they never fail the run.
	Warnings []error
}

func newRun(now time.Time) *Run {
	return &Run{ID: uuid.NewString(), Started: now, Outcome: metrics.ResultSuccess}
}

// Summary counts the render results.
func (r *Run) Summary() render.Summary { return render.Summarize(r.Results) }

// Report returns the final report view of the run.
func (r *Run) Report() report.Run {
	return report.Run{
		ID:           r.ID,
		Outcome:      string(r.Outcome),
		Stages:       r.Stages,
		TrackedFiles: len(r.Tracked),
		MediaFiles:   len(r.Media),
		Entities:     len(r.Entities),
		Render:       r.Summary(),
		Failures:     render.Failures(r.Results),
	}
}

// Artifacts returns the artifact file names present after the render stage.
func (r *Run) Artifacts() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Success {
			out = append(out, res.EntitySlug)
		}
	}
	return out
}

func (r *Run) warn(err error) {
	r.Warnings = append(r.Warnings, err)
	if r.Outcome == metrics.ResultSuccess {
		r.Outcome = metrics.ResultWarning
	}
}
