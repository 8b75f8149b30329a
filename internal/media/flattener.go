package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/fsutil"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/metrics"
)

// DefaultDirName is the directory name that marks a media directory.
const DefaultDirName = "media"

// DefaultExtensions lists the image extensions copied out of media directories.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif", ".ico"}

// Records maps a flattened file name (relative to the output directory) to
// the source path it was copied from.
type Records map[string]string

// Targets returns the recorded output names, sorted.
func (r Records) Targets() []string {
	out := make([]string, 0, len(r))
	for target := range r {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

// ConflictError reports two different sources flattening to the same output name.
type ConflictError struct {
	Target         string
	ExistingSource string
	NewSource      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("media conflict: %s is provided by both %s and %s", e.Target, e.ExistingSource, e.NewSource)
}

// Classified returns the conflict as a fatal media error for CLI reporting.
func (e *ConflictError) Classified() *foundationerrors.ClassifiedError {
	return foundationerrors.MediaError("media file name collision").
		WithCause(e).
		WithContext("target", e.Target).
		WithContext("existing_source", e.ExistingSource).
		WithContext("new_source", e.NewSource).
		Build()
}

// Options tune a Flattener.
type Options struct {
	DirName    string
	Extensions []string
	Recorder   metrics.Recorder
}

// Flattener copies media files out of content trees.
type Flattener struct {
	dirName    string
	extensions map[string]struct{}
	recorder   metrics.Recorder
}

// NewFlattener returns a Flattener; zero options select the defaults.
func NewFlattener(opts Options) *Flattener {
	dirName := opts.DirName
	if dirName == "" {
		dirName = DefaultDirName
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return &Flattener{dirName: dirName, extensions: set, recorder: metrics.OrNoop(opts.Recorder)}
}

// Flatten wipes outputDir and copies every media file found under rootDir into it.
func (f *Flattener) Flatten(ctx context.Context, rootDir, outputDir string) (Records, error) {
	return f.FlattenAll(ctx, outputDir, rootDir)
}

// FlattenAll wipes outputDir once and flattens every root into it, detecting
// conflicts across all roots. Roots that do not exist are skipped.
func (f *Flattener) FlattenAll(ctx context.Context, outputDir string, roots ...string) (Records, error) {
	if err := fsutil.ResetDir(outputDir); err != nil {
		return nil, foundationerrors.FileSystemError("failed to reset media output directory").
			WithCause(err).
			WithContext("path", outputDir).
			Build()
	}

	records := make(Records)
	for _, root := range roots {
		if !fsutil.IsDir(root) {
			slog.Debug("Media root missing, skipping", logfields.Path(root))
			continue
		}
		if err := f.walk(ctx, root, outputDir, records); err != nil {
			if resetErr := fsutil.ResetDir(outputDir); resetErr != nil {
				slog.Error("Failed to reset media output after error", logfields.Path(outputDir), logfields.Error(resetErr))
			}
			return nil, err
		}
	}

	f.recorder.AddMediaFiles(len(records))
	return records, nil
}

func (f *Flattener) walk(ctx context.Context, root, outputDir string, records Records) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return foundationerrors.FileSystemError("failed to walk media root").
				WithCause(walkErr).
				WithContext("path", p).
				Build()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() || d.Name() != f.dirName {
			return nil
		}
		if err := f.copyMediaDir(p, outputDir, records); err != nil {
			return err
		}
		return filepath.SkipDir
	})
}

// copyMediaDir copies every allowed file below dir, including nested
// subdirectories, into outputDir by base name.
func (f *Flattener) copyMediaDir(dir, outputDir string, records Records) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() || !f.allowed(d.Name()) {
			return nil
		}

		target := d.Name()
		if existing, ok := records[target]; ok {
			if existing == p {
				return nil
			}
			conflict := &ConflictError{Target: target, ExistingSource: existing, NewSource: p}
			slog.Error("Media conflict",
				logfields.Target(target),
				slog.String("existing_source", existing),
				slog.String("new_source", p))
			return conflict
		}

		if err := fsutil.CopyFile(p, filepath.Join(outputDir, target)); err != nil {
			return foundationerrors.FileSystemError("failed to copy media file").
				WithCause(err).
				WithContext("path", p).
				Build()
		}
		records[target] = p
		return nil
	})
}

func (f *Flattener) allowed(name string) bool {
	_, ok := f.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
