package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/denizgursoy/fake-cucumber/pkg/support"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// featureWatcher reports changes of .feature files below a set of directories.
type featureWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   support.Logger
}

func newFeatureWatcher(paths []string, debounce time.Duration, logger support.Logger) (*featureWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, p := range paths {
		if err := addDirectories(watcher, p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", p, err)
		}
	}

	return &featureWatcher{
		watcher:  watcher,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// addDirectories watches root and every non-hidden directory below it.
func addDirectories(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// Run calls onChange once the feature files stopped changing for the debounce
// period. Blocks until ctx is cancelled.
func (w *featureWatcher) Run(ctx context.Context, onChange func(context.Context)) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirectories(w.watcher, event.Name); err != nil {
						w.logger.Warn("could not watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if filepath.Ext(event.Name) == ".feature" && event.Op != fsnotify.Chmod {
				w.logger.Debug("feature file changed", "path", event.Name, "op", event.Op.String())
				debounce.Reset(w.debounce)
			}

		case <-debounce.C:
			onChange(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (a *Application) watch(ctx context.Context, cmd *cobra.Command, config *support.Config) error {
	paths := config.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	watcher, err := newFeatureWatcher(paths, a.debounce, config.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s for feature changes\n", strings.Join(paths, ", "))

	return watcher.Run(ctx, func(ctx context.Context) {
		if _, err := a.runOnce(ctx, cmd, config); err != nil {
			config.Logger.Error("run failed", "error", err)
		}
	})
}
