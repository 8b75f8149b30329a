package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/git"
	"git.home.luguber.info/inful/contentbuilder/internal/history"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/manifest"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
	"git.home.luguber.info/inful/contentbuilder/internal/notify"
	"git.home.luguber.info/inful/contentbuilder/internal/publish"
)

// postRender runs the steps that follow a settled render stage. Each failure
// is recorded as a warning on the run and never aborts it.
func (p *Pipeline) postRender(ctx context.Context, run *Run, store *history.Store) {
	steps := []struct {
		name string
		fn   func(context.Context, *Run) error
	}{
		{"manifest", p.writeManifest},
		{"history", func(ctx context.Context, run *Run) error { return p.recordHistory(ctx, run, store) }},
		{"publish", p.publish},
		{"notify", p.notify},
	}
	for _, step := range steps {
		if err := step.fn(ctx, run); err != nil {
			run.warn(fmt.Errorf("%s: %w", step.name, err))
			slog.Warn("Post-render step failed", logfields.RunID(run.ID), logfields.Stage(step.name), logfields.Error(err))
		}
	}
}

// rootedHistory resolves working-root relative paths before asking git.
type rootedHistory struct {
	h    *git.History
	root string
}

func (r rootedHistory) LastModified(path string) (time.Time, error) {
	return r.h.LastModified(filepath.Join(r.root, filepath.FromSlash(path)))
}

func (p *Pipeline) writeManifest(_ context.Context, run *Run) error {
	rendered := make(map[string]bool, len(run.Results))
	for _, res := range run.Results {
		rendered[res.EntitySlug] = res.Success
	}

	var lastmod manifest.LastModifier
	h, err := git.OpenHistory(p.root)
	switch {
	case err == nil:
		lastmod = rootedHistory{h: h, root: p.root}
	case errors.Is(err, git.ErrNoHistory):
		slog.Debug("Working root is not a git repository; using run start as lastmod", slog.String("root", p.root))
	default:
		slog.Warn("Failed to open working root history", logfields.Error(err))
	}

	m := manifest.Build(run.ID, run.Started, run.Entities, rendered, lastmod)
	path := p.path(p.cfg.Build.Manifest)
	if err := manifest.Write(path, m); err != nil {
		return err
	}
	hash, err := m.Hash()
	if err != nil {
		return err
	}
	run.ManifestPath = path
	run.ManifestHash = hash
	slog.Info("Manifest written", logfields.Path(path), logfields.Count(len(m.Entities)))
	return nil
}

func (p *Pipeline) recordHistory(ctx context.Context, run *Run, store *history.Store) error {
	if store == nil {
		return nil
	}
	s := run.Summary()
	record := history.RunRecord{
		ID:           run.ID,
		StartedAt:    run.Started,
		FinishedAt:   run.Finished,
		Outcome:      string(run.Outcome),
		TrackedFiles: len(run.Tracked),
		MediaFiles:   len(run.Media),
		Entities:     len(run.Entities),
		Succeeded:    s.Succeeded,
		Failed:       s.Failed,
		Skipped:      s.Skipped,
	}
	results := make([]history.ResultRecord, 0, len(run.Results))
	for _, r := range run.Results {
		rec := history.ResultRecord{
			Slug:        r.EntitySlug,
			URL:         r.SourceURL,
			Success:     r.Success,
			Skipped:     r.Skipped,
			Duration:    r.Duration,
			Fingerprint: r.Fingerprint,
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		results = append(results, rec)
	}
	return store.RecordRun(ctx, record, results)
}

func (p *Pipeline) publish(ctx context.Context, run *Run) error {
	pub := p.opts.Publisher
	if pub == nil {
		s3cfg := p.cfg.Publish.S3
		if s3cfg == nil || s3cfg.Bucket == "" {
			return nil
		}
		client, err := publish.NewS3Client(ctx, s3cfg)
		if err != nil {
			return err
		}
		pub = publish.New(client, s3cfg)
	}

	if _, err := pub.Upload(ctx, p.path(p.cfg.Build.ArtifactDir), run.Artifacts()); err != nil {
		return err
	}
	if run.ManifestPath != "" {
		return pub.UploadFile(ctx, run.ManifestPath)
	}
	return nil
}

func (p *Pipeline) notify(_ context.Context, run *Run) error {
	n := p.opts.Notifier
	if n == nil {
		if p.cfg.Notify.NATSURL == "" {
			return nil
		}
		conn, err := notify.Connect(p.cfg.Notify.NATSURL, p.cfg.Notify.Subject)
		if err != nil {
			return err
		}
		defer conn.Close()
		n = conn
	}

	s := run.Summary()
	return n.PublishRunCompleted(&notify.RunCompletedEvent{
		RunID:        run.ID,
		Outcome:      string(run.Outcome),
		StartedAt:    run.Started,
		FinishedAt:   run.Finished,
		TrackedFiles: len(run.Tracked),
		MediaFiles:   len(run.Media),
		Entities:     len(run.Entities),
		Succeeded:    s.Succeeded,
		Failed:       s.Failed,
		Skipped:      s.Skipped,
		Manifest:     run.ManifestPath,
		ManifestHash: run.ManifestHash,
	})
}

// exportMetrics writes the Prometheus textfile when one is configured.
func (p *Pipeline) exportMetrics(run *Run) {
	if p.cfg.Metrics.Textfile == "" {
		return
	}
	pr, ok := p.recorder.(*metrics.PrometheusRecorder)
	if !ok {
		return
	}
	path := p.path(p.cfg.Metrics.Textfile)
	if err := pr.WriteTextfile(path); err != nil {
		run.warn(fmt.Errorf("metrics: %w", err))
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}
