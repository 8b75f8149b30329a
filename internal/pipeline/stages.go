package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
	"git.home.luguber.info/inful/contentbuilder/internal/report"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageIngest    StageName = "ingest"
	StageFlatten   StageName = "flatten"
	StageIndex     StageName = "index"
	StageArticles  StageName = "articles"
	StageEnumerate StageName = "enumerate"
	StageRender    StageName = "render"
)

// Plans are the stage sequences the commands run. Stage order inside a plan
// is always the order of FullPlan.
var (
	FullPlan      = []StageName{StageIngest, StageFlatten, StageIndex, StageArticles, StageEnumerate, StageRender}
	LocalPlan     = []StageName{StageFlatten, StageIndex, StageArticles, StageEnumerate, StageRender}
	EnumeratePlan = []StageName{StageIndex, StageArticles, StageEnumerate}
)

type stageFunc func(ctx context.Context, run *Run) error

type stageDef struct {
	name StageName
	fn   stageFunc
	// skip reports that the stage is disabled for this pipeline.
	skip func() bool
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Every stage error is fatal to the run.
func runStages(ctx context.Context, run *Run, stages []stageDef, recorder metrics.Recorder) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			recorder.IncStageResult(string(st.name), metrics.ResultCanceled)
			return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "run canceled").
				WithContext("stage", string(st.name)).
				Build()
		}

		if st.skip != nil && st.skip() {
			slog.Info("Stage skipped", logfields.RunID(run.ID), logfields.Stage(string(st.name)))
			run.Stages = append(run.Stages, report.StageTiming{Name: string(st.name), Skipped: true})
			continue
		}

		slog.Debug("Stage starting", logfields.RunID(run.ID), logfields.Stage(string(st.name)))
		t0 := time.Now()
		err := st.fn(ctx, run)
		dur := time.Since(t0)

		run.Stages = append(run.Stages, report.StageTiming{Name: string(st.name), Duration: dur})
		recorder.ObserveStageDuration(string(st.name), dur)

		if err != nil {
			label := metrics.ResultFatal
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				label = metrics.ResultCanceled
			}
			recorder.IncStageResult(string(st.name), label)
			slog.Error("Stage failed",
				logfields.RunID(run.ID),
				logfields.Stage(string(st.name)),
				logfields.DurationMS(float64(dur.Milliseconds())),
				logfields.Error(err))
			return err
		}

		recorder.IncStageResult(string(st.name), metrics.ResultSuccess)
		slog.Info("Stage complete",
			logfields.RunID(run.ID),
			logfields.Stage(string(st.name)),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
	return nil
}
