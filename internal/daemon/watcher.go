package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
)

// DefaultQuietWindow is how long the tree must stay unchanged before a run.
const DefaultQuietWindow = 500 * time.Millisecond

// WatcherOptions configure a Watcher.
type WatcherOptions struct {
	// Roots are the directory trees to watch. Missing roots are skipped.
	Roots []string
	// Ignore lists trees whose changes never trigger a run, typically the
	// pipeline's own output directories.
	Ignore      []string
	QuietWindow time.Duration
}

// Watcher runs a task after a burst of filesystem changes settles.
type Watcher struct {
	watcher *fsnotify.Watcher
	quiet   time.Duration
	ignore  []string
	task    Task
}

// NewWatcher watches every directory below opts.Roots.
func NewWatcher(opts WatcherOptions, task Task) (*Watcher, error) {
	if task == nil {
		return nil, errors.New("watch task is required")
	}
	quiet := opts.QuietWindow
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{watcher: fw, quiet: quiet, task: task}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	for _, root := range opts.Roots {
		if err := w.addTree(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree registers root and all its subdirectories; fsnotify does not
// watch recursively.
func (w *Watcher) addTree(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) || (p != abs && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool {
	for _, ig := range w.ignore {
		if p == ig || strings.HasPrefix(p, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, calling the task once per settled burst of
// changes. Changes that arrive during a run trigger one follow-up run.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()

	slog.Info("Watching for content changes", logfields.Count(len(w.watcher.WatchList())))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Content change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.quiet)

		case <-timer.C:
			w.task(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return !w.ignored(event.Name)
}
