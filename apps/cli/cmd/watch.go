package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/snapshot"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	// WatchMinInterval is the shortest time between two re-runs.
	WatchMinInterval = 2 * time.Second
)

// watch re-runs the cases whenever a case file or the env file changes,
// until ctx is cancelled.
func (s *session) watch(ctx context.Context, w io.Writer, args []string, envFile string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(args, envFile) {
		if err := watcher.Add(dir); err != nil {
			s.log.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	limiter := rate.NewLimiter(rate.Every(WatchMinInterval), 1)
	named := make(map[string]bool)
	for _, arg := range args {
		named[filepath.Clean(arg)] = true
	}
	if envFile != "" {
		named[filepath.Clean(envFile)] = true
	}
	isWatched := func(path string) bool {
		return isCaseFile(path) || named[filepath.Clean(path)]
	}

	fmt.Fprintf(w, "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounce <-chan time.Time
	var changed string
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) || !isWatched(event.Name) {
				continue
			}
			changed = event.Name
			debounce = time.After(WatchDebounceDelay)

		case <-debounce:
			debounce = nil
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			fmt.Fprintf(w, "\nFile changed: %s\nRe-running cases...\n", changed)

			// New case files may have appeared since the last run.
			files, err := collectFiles(args)
			if err != nil {
				s.log.Warn("failed to collect files", zap.Error(err))
				continue
			}
			if _, err := s.run(ctx, files); err != nil {
				s.log.Warn("failed to write output", zap.Error(err))
			}
			fmt.Fprintf(w, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// watchDirs returns every directory to watch: the directories named in args
// and their subdirectories, the parents of named files, and the env file's
// directory.
func watchDirs(args []string, envFile string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(arg))
			continue
		}
		_ = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if d.Name() == snapshot.Dir {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
	}
	if envFile != "" {
		add(filepath.Dir(envFile))
	}
	return dirs
}
