package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/fsutil"
	"git.home.luguber.info/inful/contentbuilder/internal/git"
	"git.home.luguber.info/inful/contentbuilder/internal/glob"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
	"git.home.luguber.info/inful/contentbuilder/internal/retry"
	"git.home.luguber.info/inful/contentbuilder/internal/workspace"
)

// TrackedFile records one file copied from a source repository. FromSource is
// relative to the clone root and ToTarget to the working root, both slash
// separated, so records are stable across runs.
type TrackedFile struct {
	FromSource string `json:"from_source"`
	ToTarget   string `json:"to_target"`
	Repository string `json:"repository"`
}

// Cloner fetches a repository into a local directory.
type Cloner interface {
	Clone(ctx context.Context, req git.CloneRequest) (git.CloneResult, error)
}

// Options tune an Ingestor.
type Options struct {
	// ScratchDir is the parent of the per-run scratch workspace; empty means the OS temp dir.
	ScratchDir string
	Retry      retry.Policy
	Recorder   metrics.Recorder
}

// Ingestor copies configured repository subtrees into the working root.
type Ingestor struct {
	cloner   Cloner
	root     string
	scratch  string
	policy   retry.Policy
	recorder metrics.Recorder
}

// New creates an Ingestor writing mapping targets below root.
func New(cloner Cloner, root string, opts Options) *Ingestor {
	policy := opts.Retry
	if policy.Max == 0 {
		policy = retry.DefaultPolicy()
	}
	return &Ingestor{
		cloner:   cloner,
		root:     root,
		scratch:  opts.ScratchDir,
		policy:   policy,
		recorder: metrics.OrNoop(opts.Recorder),
	}
}

// Ingest clones every source of cfg in order and copies its mappings. It
// returns the files copied in this run. On error nothing is returned and the
// targets of already processed mappings keep their new contents. Mappings are
// checked up front, so a target that would wipe the working root or another
// mapping's files fails the run before anything is cloned or deleted.
func (i *Ingestor) Ingest(ctx context.Context, cfg *config.ContentConfig) ([]TrackedFile, error) {
	if err := cfg.ValidateMappings(); err != nil {
		return nil, err
	}
	filter := glob.NewFilter(cfg.Include, cfg.Exclude)

	ws := workspace.NewManager(i.scratch)
	if err := ws.Create(); err != nil {
		return nil, foundationerrors.FileSystemError("failed to create scratch workspace").WithCause(err).Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to remove scratch workspace", logfields.Path(ws.GetPath()), logfields.Error(err))
		}
	}()

	var tracked []TrackedFile
	for idx, src := range cfg.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clonePath, err := i.clone(ctx, ws, idx, src)
		if err != nil {
			return nil, err
		}

		for _, m := range src.Mappings {
			files, err := i.copyMapping(clonePath, src.Repository, m, filter)
			if err != nil {
				return nil, err
			}
			slog.Info("Copied mapping",
				logfields.Repository(src.Repository),
				slog.String("source", m.Source),
				logfields.Target(m.Target),
				logfields.Count(len(files)))
			tracked = append(tracked, files...)
		}
	}

	i.recorder.AddTrackedFiles(len(tracked))
	return tracked, nil
}

func (i *Ingestor) clone(ctx context.Context, ws *workspace.Manager, idx int, src config.ContentSource) (string, error) {
	dest, err := ws.CreateSubdir(fmt.Sprintf("source-%d", idx))
	if err != nil {
		return "", foundationerrors.FileSystemError("failed to create clone directory").
			WithCause(err).
			WithContext("repository", src.Repository).
			Build()
	}

	req := git.CloneRequest{URL: src.Repository, Branch: src.Branch, Dest: dest}
	start := time.Now()
	var res git.CloneResult
	err = i.policy.Do(ctx, func() error {
		var cloneErr error
		res, cloneErr = i.cloner.Clone(ctx, req)
		return cloneErr
	}, foundationerrors.IsRetryable, func(attempt int, err error) {
		i.recorder.IncCloneRetry(src.Repository)
		slog.Warn("Retrying clone",
			logfields.Repository(src.Repository),
			slog.Int("attempt", attempt),
			logfields.Error(err))
	})
	i.recorder.ObserveCloneDuration(src.Repository, time.Since(start), err == nil)
	if err != nil {
		return "", newCloneError(src.Repository, src.Branch, err)
	}

	slog.Info("Cloned repository",
		logfields.Repository(src.Repository),
		logfields.Branch(src.Branch),
		slog.String("commit", res.Commit),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	if res.Path != "" {
		return res.Path, nil
	}
	return dest, nil
}

// copyMapping replaces the mapping target with the filtered files found under
// the mapping source. Filter patterns see paths relative to the mapping source.
func (i *Ingestor) copyMapping(clonePath, repository string, m config.Mapping, filter glob.Filter) ([]TrackedFile, error) {
	srcDir := filepath.Join(clonePath, filepath.FromSlash(m.Source))
	if !fsutil.IsDir(srcDir) {
		return nil, mappingSourceMissing(repository, m.Source)
	}

	targetDir := config.Resolve(i.root, m.Target)
	if err := fsutil.ResetDir(targetDir); err != nil {
		return nil, foundationerrors.FileSystemError("failed to reset mapping target").
			WithCause(err).
			WithContext("repository", repository).
			WithContext("target", m.Target).
			Build()
	}

	sourcePrefix := path.Clean(filepath.ToSlash(m.Source))
	targetPrefix := path.Clean(filepath.ToSlash(m.Target))

	var files []TrackedFile
	err := filepath.WalkDir(srcDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		if !filter.ShouldCopy(relSlash) {
			return nil
		}

		if err := fsutil.CopyFile(p, filepath.Join(targetDir, rel)); err != nil {
			return copyFailed(repository, path.Join(sourcePrefix, relSlash), err)
		}
		files = append(files, TrackedFile{
			FromSource: path.Join(sourcePrefix, relSlash),
			ToTarget:   path.Join(targetPrefix, relSlash),
			Repository: repository,
		})
		return nil
	})
	if err != nil {
		if foundationerrors.IsClassified(err) {
			return nil, err
		}
		return nil, foundationerrors.FileSystemError("failed to walk mapping source").
			WithCause(err).
			WithContext("repository", repository).
			WithContext("mapping", m.Source).
			Build()
	}
	return files, nil
}
