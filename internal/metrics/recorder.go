package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// RenderOutcome labels the result of rendering one entity.
type RenderOutcome string

const (
	RenderSuccess RenderOutcome = "success"
	RenderFailure RenderOutcome = "failure"
	RenderSkipped RenderOutcome = "skipped"
)

// Recorder defines observability hooks for a pipeline run.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome ResultLabel)
	ObserveCloneDuration(repo string, d time.Duration, success bool)
	IncCloneRetry(repo string)
	AddTrackedFiles(n int)
	AddMediaFiles(n int)
	SetEntities(n int)
	ObserveRender(d time.Duration, outcome RenderOutcome)
	SetRenderInFlight(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)       {}
func (NoopRecorder) IncStageResult(string, ResultLabel)               {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                 {}
func (NoopRecorder) IncRunOutcome(ResultLabel)                        {}
func (NoopRecorder) ObserveCloneDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncCloneRetry(string)                             {}
func (NoopRecorder) AddTrackedFiles(int)                              {}
func (NoopRecorder) AddMediaFiles(int)                                {}
func (NoopRecorder) SetEntities(int)                                  {}
func (NoopRecorder) ObserveRender(time.Duration, RenderOutcome)       {}
func (NoopRecorder) SetRenderInFlight(int)                            {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
