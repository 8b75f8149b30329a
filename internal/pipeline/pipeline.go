package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/articles"
	"git.home.luguber.info/inful/contentbuilder/internal/blog"
	"git.home.luguber.info/inful/contentbuilder/internal/config"
	"git.home.luguber.info/inful/contentbuilder/internal/entity"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/git"
	"git.home.luguber.info/inful/contentbuilder/internal/history"
	"git.home.luguber.info/inful/contentbuilder/internal/ingest"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/media"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
	"git.home.luguber.info/inful/contentbuilder/internal/notify"
	"git.home.luguber.info/inful/contentbuilder/internal/reference"
	"git.home.luguber.info/inful/contentbuilder/internal/render"
	"git.home.luguber.info/inful/contentbuilder/internal/retry"
)

// Publisher uploads artifacts and the manifest after a run.
type Publisher interface {
	Upload(ctx context.Context, dir string, names []string) (int, error)
	UploadFile(ctx context.Context, file string) error
}

// Notifier announces a finished run.
type Notifier interface {
	PublishRunCompleted(event *notify.RunCompletedEvent) error
	Close()
}

// Options replace the collaborators New would otherwise build from the
// configuration. Zero values select the configured defaults.
type Options struct {
	SkipIngest bool
	// ScratchDir is the parent of the per-run clone workspace.
	ScratchDir string
	Cloner     ingest.Cloner
	Renderer   render.Renderer
	Posts      blog.Source
	Recorder   metrics.Recorder
	// Progress is called after each settled render.
	Progress  func(completed, total int)
	Publisher Publisher
	Notifier  Notifier
	Now       func() time.Time
}

// Pipeline executes runs for one configuration and working root.
type Pipeline struct {
	cfg      *config.ContentConfig
	root     string
	opts     Options
	cloner   ingest.Cloner
	renderer render.Renderer
	posts    blog.Source
	recorder metrics.Recorder
}

// New prepares a pipeline. cfg must already be defaulted and validated.
func New(cfg *config.ContentConfig, root string, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, foundationerrors.ConfigError("configuration is required").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, foundationerrors.FileSystemError("failed to resolve working root").
			WithContext("path", root).
			WithCause(err).
			Build()
	}

	p := &Pipeline{cfg: cfg, root: abs, opts: opts, cloner: opts.Cloner, renderer: opts.Renderer, posts: opts.Posts}

	if p.cloner == nil {
		p.cloner = git.NewClient(git.WithDepth(cfg.Build.CloneDepth), git.WithAuth(git.AuthFromEnv()))
	}
	if p.renderer == nil {
		r, err := render.NewPNGRenderer(cfg.Build.SiteTitle)
		if err != nil {
			return nil, foundationerrors.RenderError("failed to initialise artifact renderer").
				WithCause(err).
				Fatal().
				Build()
		}
		p.renderer = r
	}
	if p.posts == nil && cfg.Blog.Feed != "" {
		p.posts = blog.NewFeedSource(p.feedLocation(), cfg.Blog.Limit)
	}

	switch {
	case opts.Recorder != nil:
		p.recorder = opts.Recorder
	case cfg.Metrics.Textfile != "":
		p.recorder = metrics.NewPrometheusRecorder(nil)
	default:
		p.recorder = metrics.NoopRecorder{}
	}
	return p, nil
}

// Root returns the absolute working root.
func (p *Pipeline) Root() string { return p.root }

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() *config.ContentConfig { return p.cfg }

func (p *Pipeline) now() time.Time {
	if p.opts.Now != nil {
		return p.opts.Now()
	}
	return time.Now()
}

func (p *Pipeline) path(rel string) string { return config.Resolve(p.root, rel) }

// HistoryPath returns the resolved run history database location.
func (p *Pipeline) HistoryPath() string {
	if p.cfg.History.Path == ":memory:" {
		return p.cfg.History.Path
	}
	return p.path(p.cfg.History.Path)
}

func (p *Pipeline) feedLocation() string {
	feed := p.cfg.Blog.Feed
	if strings.Contains(feed, "://") {
		return feed
	}
	return p.path(feed)
}

// Execute runs the stages of plan in pipeline order. When the plan includes
// the render stage the post-render steps follow. The returned Run is never
// nil; err is the fatal stage error, if any.
func (p *Pipeline) Execute(ctx context.Context, plan []StageName) (*Run, error) {
	run := newRun(p.now())
	slog.Info("Run starting", logfields.RunID(run.ID), slog.Any("stages", plan), slog.String("root", p.root))

	var store *history.Store
	if slices.Contains(plan, StageRender) && p.cfg.History.Path != "" {
		s, err := history.Open(p.HistoryPath())
		if err != nil {
			run.warn(fmt.Errorf("open history: %w", err))
			slog.Warn("Run history unavailable", logfields.Path(p.cfg.History.Path), logfields.Error(err))
		} else {
			store = s
			defer func() { _ = store.Close() }()
		}
	}

	err := runStages(ctx, run, p.stages(plan, store), p.recorder)
	run.Finished = p.now()

	if err != nil {
		run.Outcome = metrics.ResultFatal
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			run.Outcome = metrics.ResultCanceled
		}
		p.finish(run)
		return run, err
	}

	if run.Rendered {
		if run.Summary().Failed > 0 && run.Outcome == metrics.ResultSuccess {
			run.Outcome = metrics.ResultWarning
		}
		p.postRender(ctx, run, store)
	}
	p.finish(run)
	return run, nil
}

// finish records run level metrics and exports them.
func (p *Pipeline) finish(run *Run) {
	p.recorder.ObserveRunDuration(run.Finished.Sub(run.Started))
	p.recorder.IncRunOutcome(run.Outcome)
	p.exportMetrics(run)

	s := run.Summary()
	slog.Info("Run complete",
		logfields.RunID(run.ID),
		slog.String("outcome", string(run.Outcome)),
		logfields.DurationMS(float64(run.Finished.Sub(run.Started).Milliseconds())),
		slog.Int("entities", len(run.Entities)),
		slog.Int("rendered", s.Succeeded-s.Skipped),
		slog.Int("failed", s.Failed))
}

func (p *Pipeline) stages(plan []StageName, store *history.Store) []stageDef {
	all := []stageDef{
		{name: StageIngest, fn: p.ingest, skip: func() bool { return p.opts.SkipIngest }},
		{name: StageFlatten, fn: p.flatten},
		{name: StageIndex, fn: p.index},
		{name: StageArticles, fn: p.articles},
		{name: StageEnumerate, fn: p.enumerate},
		{name: StageRender, fn: func(ctx context.Context, run *Run) error { return p.render(ctx, run, store) }},
	}
	out := make([]stageDef, 0, len(plan))
	for _, st := range all {
		if slices.Contains(plan, st.name) {
			out = append(out, st)
		}
	}
	return out
}

func (p *Pipeline) ingest(ctx context.Context, run *Run) error {
	ing := ingest.New(p.cloner, p.root, ingest.Options{
		ScratchDir: p.opts.ScratchDir,
		Retry:      retry.FromConfig(p.cfg.Build.Retry),
		Recorder:   p.recorder,
	})
	tracked, err := ing.Ingest(ctx, p.cfg)
	if err != nil {
		return err
	}
	run.Tracked = tracked
	return nil
}

func (p *Pipeline) flatten(ctx context.Context, run *Run) error {
	f := media.NewFlattener(media.Options{DirName: p.cfg.Build.MediaDirName, Recorder: p.recorder})
	records, err := f.FlattenAll(ctx, p.path(p.cfg.Build.MediaOutput), p.MediaRoots()...)
	if err != nil {
		var conflict *media.ConflictError
		if errors.As(err, &conflict) {
			return conflict.Classified()
		}
		return err
	}
	run.Media = records
	return nil
}

// MediaRoots returns the absolute trees searched for media directories: the
// docs and reference trees plus every mapping target, without roots nested
// inside another root.
func (p *Pipeline) MediaRoots() []string {
	candidates := []string{p.path(p.cfg.Build.DocsDir), p.path(p.cfg.Build.ReferenceDir)}
	for _, src := range p.cfg.Sources {
		for _, m := range src.Mappings {
			candidates = append(candidates, p.path(m.Target))
		}
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	var roots []string
	for _, c := range candidates {
		if !nestedIn(c, roots) {
			roots = append(roots, c)
		}
	}
	return roots
}

// nestedIn reports whether dir lies inside one of roots. roots are visited
// in sorted order, so parents always come first.
func nestedIn(dir string, roots []string) bool {
	for _, r := range roots {
		if strings.HasPrefix(dir, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (p *Pipeline) index(_ context.Context, run *Run) error {
	idx, err := reference.Load(p.path(p.cfg.Build.ReferenceDir))
	if err != nil {
		return err
	}
	run.Index = idx
	slog.Info("Reference index loaded", logfields.Count(len(idx.Items())), slog.Int("pairs", len(idx.Pairs())))
	return nil
}

func (p *Pipeline) articles(_ context.Context, run *Run) error {
	store := articles.NewStore(p.path(p.cfg.Build.DocsDir))
	sections, err := store.ListSections()
	if err != nil {
		return err
	}
	for _, section := range sections {
		if _, err := store.Navigation(section); err != nil {
			return err
		}
	}
	paths, err := store.AllPaths()
	if err != nil {
		return err
	}
	run.Articles = store
	run.ArticleCount = len(paths)
	slog.Info("Articles loaded", slog.Int("sections", len(sections)), logfields.Count(len(paths)))
	return nil
}

func (p *Pipeline) enumerate(ctx context.Context, run *Run) error {
	if run.Index == nil {
		run.Index = reference.NewIndex(nil)
	}
	if run.Articles == nil {
		run.Articles = articles.NewStore(p.path(p.cfg.Build.DocsDir))
	}
	en := entity.NewEnumerator(run.Articles, run.Index, p.posts, entity.Options{
		SiteTitle:          p.cfg.Build.SiteTitle,
		DefaultDescription: p.cfg.Build.DefaultDescription,
		DocsDir:            p.cfg.Build.DocsDir,
		ReferenceDir:       p.cfg.Build.ReferenceDir,
	})
	entities, err := en.Enumerate(ctx)
	if err != nil {
		return err
	}
	run.Entities = entities
	p.recorder.SetEntities(len(entities))
	return nil
}

func (p *Pipeline) render(ctx context.Context, run *Run, store *history.Store) error {
	opts := render.Options{
		OutputDir:   p.path(p.cfg.Build.ArtifactDir),
		Progress:    p.opts.Progress,
		TaskTimeout: p.cfg.Build.RenderTimeout.Std(),
		Recorder:    p.recorder,
	}
	if store != nil {
		cache, err := store.Fingerprints(ctx)
		if err != nil {
			slog.Warn("Artifact fingerprints unavailable, rendering everything", logfields.Error(err))
		} else {
			opts.Cache = cache
		}
	}

	run.Results = render.NewGenerator(p.renderer, opts).RenderAll(ctx, run.Entities, p.cfg.Build.Concurrency)
	run.Rendered = true
	if err := ctx.Err(); err != nil {
		return err
	}

	if removed, err := pruneArtifacts(opts.OutputDir, run.Entities); err != nil {
		slog.Warn("Failed to prune stale artifacts", logfields.Path(opts.OutputDir), logfields.Error(err))
	} else if removed > 0 {
		slog.Info("Pruned stale artifacts", logfields.Count(removed))
	}
	return nil
}

// pruneArtifacts removes artifact files in dir that belong to no entity.
func pruneArtifacts(dir string, entities []entity.Entity) (int, error) {
	keep := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		keep[e.Slug] = struct{}{}
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || filepath.Ext(name) != entity.ArtifactExt {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
