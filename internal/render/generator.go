package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/entity"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
)

// Renderer draws the artifact of one entity.
type Renderer interface {
	Render(ctx context.Context, e entity.Entity, w io.Writer) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, e entity.Entity, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, e entity.Entity, w io.Writer) error {
	return f(ctx, e, w)
}

// Cache returns the fingerprint an existing artifact was rendered from.
type Cache interface {
	Fingerprint(slug string) (string, bool)
}

// Options tune a Generator.
type Options struct {
	OutputDir string
	// Progress is called after every settled entity. It must not block.
	Progress func(completed, total int)
	// TaskTimeout bounds a single render; zero means no bound.
	TaskTimeout time.Duration
	Cache       Cache
	Recorder    metrics.Recorder
}

// Generator renders entities into OutputDir, one file named by slug each.
type Generator struct {
	renderer Renderer
	opts     Options
	recorder metrics.Recorder
	inFlight atomic.Int64
}

// NewGenerator returns a Generator drawing with renderer.
func NewGenerator(renderer Renderer, opts Options) *Generator {
	return &Generator{renderer: renderer, opts: opts, recorder: metrics.OrNoop(opts.Recorder)}
}

type indexedResult struct {
	idx int
	res Result
}

// RenderAll renders every entity with at most limit renders in flight and
// returns one Result per entity in input order. It returns only after every
// task has settled. A cancelled ctx fails the remaining entities.
func (g *Generator) RenderAll(ctx context.Context, entities []entity.Entity, limit int) []Result {
	total := len(entities)
	if total == 0 {
		return []Result{}
	}
	if limit < 1 {
		limit = 1
	}
	workers := min(limit, total)

	if err := os.MkdirAll(g.opts.OutputDir, 0o750); err != nil {
		slog.Error("Failed to create artifact directory", logfields.Path(g.opts.OutputDir), logfields.Error(err))
	}

	type task struct {
		idx    int
		entity entity.Entity
	}
	tasks := make(chan task)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected = make([]indexedResult, 0, total)
		completed atomic.Int64
	)

	worker := func() {
		defer wg.Done()
		for t := range tasks {
			res := g.renderOne(ctx, t.entity)
			mu.Lock()
			collected = append(collected, indexedResult{idx: t.idx, res: res})
			mu.Unlock()
			n := completed.Add(1)
			if g.opts.Progress != nil {
				g.opts.Progress(int(n), total)
			}
		}
	}
	wg.Add(workers)
	for range workers {
		go worker()
	}
	for i, e := range entities {
		tasks <- task{idx: i, entity: e}
	}
	close(tasks)
	wg.Wait()

	sort.Slice(collected, func(i, j int) bool { return collected[i].idx < collected[j].idx })
	results := make([]Result, total)
	for i, c := range collected {
		results[i] = c.res
	}
	return results
}

func (g *Generator) renderOne(ctx context.Context, e entity.Entity) Result {
	start := time.Now()
	g.recorder.SetRenderInFlight(int(g.inFlight.Add(1)))
	defer func() { g.recorder.SetRenderInFlight(int(g.inFlight.Add(-1))) }()

	res := Result{EntitySlug: e.Slug, SourceURL: e.URL, Fingerprint: entity.Fingerprint(e)}
	outcome := metrics.RenderSuccess
	defer func() {
		res.Duration = time.Since(start)
		g.recorder.ObserveRender(res.Duration, outcome)
	}()

	fail := func(err error) Result {
		outcome = metrics.RenderFailure
		res.Err = &RenderError{Slug: e.Slug, URL: e.URL, Err: err}
		slog.Warn("Render failed", logfields.Entity(e.Slug), logfields.URL(e.URL), logfields.Error(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if g.current(e.Slug, res.Fingerprint) {
		outcome = metrics.RenderSkipped
		res.Success, res.Skipped = true, true
		slog.Debug("Artifact current, skipping", logfields.Entity(e.Slug))
		return res
	}

	if err := g.execute(ctx, e); err != nil {
		return fail(err)
	}
	res.Success = true
	return res
}

// current reports whether the cached fingerprint matches and the artifact exists.
func (g *Generator) current(slug, fingerprint string) bool {
	if g.opts.Cache == nil || fingerprint == "" {
		return false
	}
	cached, ok := g.opts.Cache.Fingerprint(slug)
	if !ok || cached != fingerprint {
		return false
	}
	_, err := os.Stat(filepath.Join(g.opts.OutputDir, slug))
	return err == nil
}

// execute runs one render under the task timeout. A panicking renderer
// becomes an error. On timeout the task fails with the context error, but the
// worker slot stays occupied until the render returns, so renderers that
// ignore ctx cannot push the number of running renders past the limit.
func (g *Generator) execute(ctx context.Context, e entity.Entity) error {
	if g.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.TaskTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- g.write(ctx, e)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		<-done
		return ctx.Err()
	}
}

// write renders into a temporary file and renames it into place, so a
// failed render never leaves a partial artifact.
func (g *Generator) write(ctx context.Context, e entity.Entity) error {
	if e.Slug == "" {
		return errors.New("entity has no slug")
	}
	tmp, err := os.CreateTemp(g.opts.OutputDir, ".render-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := g.renderer.Render(ctx, e, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(g.opts.OutputDir, e.Slug)); err != nil {
		return fmt.Errorf("commit artifact: %w", err)
	}
	committed = true
	return nil
}
