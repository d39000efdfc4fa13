package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relight-dev/relight/internal/config"
)

// WatchOptions configures a watch session. Hook fields may be nil.
type WatchOptions struct {
	// Mode selects development or production compilation.
	Mode config.Mode

	// OnInitialBuild fires once, after the first build completes. It fires
	// for failed initial builds too; the failure itself is reported through
	// OnBuildFailure.
	OnInitialBuild func()

	// OnRebuildStart fires when a rebuild begins.
	OnRebuildStart func()

	// OnRebuildFinish fires when a rebuild ends. ok reports whether the
	// build succeeded.
	OnRebuildFinish func(ok bool)

	// OnFileCreated, OnFileChanged, OnFileDeleted fire per file event.
	OnFileCreated func(path string)
	OnFileChanged func(path string)
	OnFileDeleted func(path string)

	// OnBuildFailure receives build errors. A failing cycle does not stop
	// the watch loop.
	OnBuildFailure func(*BuildError)

	// Debounce is the quiet period before a burst of file events triggers
	// a rebuild. Defaults to 100ms.
	Debounce time.Duration
}

// watchIgnore contains base names always skipped during watch.
var watchIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watch builds once, then watches the app directory and rebuilds on change.
// It returns a stop function that is idempotent and waits for the watch
// loop, including any in-flight rebuild, to finish before returning.
func Watch(ctx context.Context, cfg *config.Config, opts WatchOptions) (func() error, error) {
	if opts.Debounce == 0 {
		opts.Debounce = 100 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watchSession{
		cfg:     cfg,
		opts:    opts,
		fw:      fw,
		stopCh:  make(chan struct{}),
		eventCh: make(chan fileEvent, 64),
	}

	if err := w.addRecursive(cfg.AppPath()); err != nil {
		fw.Close()
		return nil, err
	}
	for _, extra := range cfg.WatchPaths() {
		if err := w.addRecursive(extra); err != nil {
			fw.Close()
			return nil, err
		}
	}

	// First build happens before the loop starts so OnInitialBuild has
	// fired by the time callers see the stop function work.
	w.build(ctx)
	if opts.OnInitialBuild != nil {
		opts.OnInitialBuild()
	}

	w.wg.Add(2)
	go w.readEvents(ctx)
	go w.loop(ctx)

	return w.stop, nil
}

type fileEvent struct {
	path string
	op   fsnotify.Op
}

type watchSession struct {
	cfg     *config.Config
	opts    WatchOptions
	fw      *fsnotify.Watcher
	stopCh  chan struct{}
	eventCh chan fileEvent
	wg      sync.WaitGroup
	once    sync.Once
}

// stop shuts the session down and waits for the loop to drain.
func (w *watchSession) stop() error {
	w.once.Do(func() {
		close(w.stopCh)
		w.fw.Close()
	})
	w.wg.Wait()
	return nil
}

// addRecursive registers a directory tree with the fsnotify watcher.
func (w *watchSession) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// readEvents pumps raw fsnotify events into eventCh, registering newly
// created directories as they appear.
func (w *watchSession) readEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addRecursive(ev.Name)
					continue
				}
			}
			select {
			case w.eventCh <- fileEvent{path: ev.Name, op: ev.Op}:
			default:
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}

// loop coalesces bursts of file events and runs one rebuild per burst.
func (w *watchSession) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case first := <-w.eventCh:
			events := []fileEvent{first}
			timer := time.NewTimer(w.opts.Debounce)
		drain:
			for {
				select {
				case next := <-w.eventCh:
					events = append(events, next)
					if !timer.Stop() {
						<-timer.C
					}
					timer.Reset(w.opts.Debounce)
				case <-timer.C:
					break drain
				case <-w.stopCh:
					timer.Stop()
					return
				case <-ctx.Done():
					timer.Stop()
					return
				}
			}

			w.report(events)
			w.rebuild(ctx)
		}
	}
}

// report invokes the per-file hooks in the order events arrived.
func (w *watchSession) report(events []fileEvent) {
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		key := ev.path + "|" + ev.op.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		switch {
		case ev.op.Has(fsnotify.Create):
			if w.opts.OnFileCreated != nil {
				w.opts.OnFileCreated(ev.path)
			}
		case ev.op.Has(fsnotify.Remove) || ev.op.Has(fsnotify.Rename):
			if w.opts.OnFileDeleted != nil {
				w.opts.OnFileDeleted(ev.path)
			}
		case ev.op.Has(fsnotify.Write):
			if w.opts.OnFileChanged != nil {
				w.opts.OnFileChanged(ev.path)
			}
		}
	}
}

// rebuild runs one rebuild cycle with the start/finish hooks.
func (w *watchSession) rebuild(ctx context.Context) {
	if w.opts.OnRebuildStart != nil {
		w.opts.OnRebuildStart()
	}
	ok := w.build(ctx)
	if w.opts.OnRebuildFinish != nil {
		w.opts.OnRebuildFinish(ok)
	}
}

// build runs a single build, routing failures to OnBuildFailure.
func (w *watchSession) build(ctx context.Context) bool {
	err := Build(ctx, w.cfg, BuildOptions{
		Mode:           w.opts.Mode,
		OnBuildFailure: w.opts.OnBuildFailure,
	})
	return err == nil
}

// ignored reports whether a path is excluded from watching. The build
// output directory is always excluded so rebuild writes never feed back
// into the watcher.
func (w *watchSession) ignored(path string) bool {
	if isWithinDir(path, w.cfg.OutputPath()) {
		return true
	}

	name := filepath.Base(path)
	patterns := append([]string{}, watchIgnore...)
	patterns = append(patterns, w.cfg.Dev.Ignore...)
	for _, pattern := range patterns {
		if name == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// isWithinDir reports whether path is dir or inside dir.
func isWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	absDir = filepath.Clean(absDir)
	if absPath == absDir {
		return true
	}
	if !strings.HasSuffix(absDir, string(os.PathSeparator)) {
		absDir += string(os.PathSeparator)
	}
	return strings.HasPrefix(absPath, absDir)
}
