package render

import (
	"fmt"
	"time"
)

// Result is the outcome of rendering one entity.
type Result struct {
	Success    bool
	EntitySlug string
	SourceURL  string
	Err        error
	// Skipped marks an artifact that was already current; it counts as a success.
	Skipped     bool
	Duration    time.Duration
	Fingerprint string
}

// RenderError reports one entity whose artifact could not be produced.
type RenderError struct {
	Slug string
	URL  string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (%s): %v", e.Slug, e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Summary counts the outcomes of a batch.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Summarize counts results. Skipped results are included in Succeeded.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case !r.Success:
			s.Failed++
		case r.Skipped:
			s.Skipped++
			s.Succeeded++
		default:
			s.Succeeded++
		}
	}
	return s
}

// Failures returns the failed results in input order.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
