package workspace

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// triggers reloads the active dataset when its local file changes or on a
// cron schedule for URL sources.
type triggers struct {
	ws *Workspace

	mu          sync.Mutex
	watched     string // absolute path of the watched file
	watcher     *fsnotify.Watcher
	watchCancel context.CancelFunc
	cronSched   *cron.Cron
	cronSource  string
	cronExpr    string
}

func newTriggers(ws *Workspace) *triggers {
	return &triggers{ws: ws}
}

// follow points the triggers at a freshly loaded source. Reloads of the
// same source keep the current watcher and schedule.
func (t *triggers) follow(kind string, req Request) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case SourcePath:
		t.stopCronLocked()
		if t.ws.cfg.WatchFiles {
			t.watchLocked(req.Path)
		} else {
			t.stopWatchLocked()
		}
	case SourceURL:
		t.stopWatchLocked()
		if t.ws.cfg.RefreshSchedule != "" {
			t.scheduleLocked(req.URL, t.ws.cfg.RefreshSchedule)
		} else {
			t.stopCronLocked()
		}
	default:
		t.stopWatchLocked()
		t.stopCronLocked()
	}
}

func (t *triggers) watching() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watcher != nil
}

func (t *triggers) schedule() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cronSched == nil {
		return ""
	}
	return t.cronExpr
}

func (t *triggers) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopWatchLocked()
	t.stopCronLocked()
}

// watchLocked watches the file's directory so editors that replace the
// file by rename are still seen.
func (t *triggers) watchLocked(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		slog.Warn("dataset watcher: bad path", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if t.watcher != nil && t.watched == absPath {
		return
	}
	t.stopWatchLocked()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("dataset watcher: failed to create watcher", slog.String("error", err.Error()))
		return
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		slog.Warn("dataset watcher: failed to watch directory",
			slog.String("dir", filepath.Dir(absPath)),
			slog.String("error", err.Error()),
		)
		watcher.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.watcher = watcher
	t.watchCancel = cancel
	t.watched = absPath

	debounced := debounce.New(t.ws.cfg.WatchDebounce)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		slog.Info("dataset watcher: file changed, reloading", slog.String("path", absPath))
		if _, err := t.ws.Reload(ctx); err != nil {
			slog.Warn("dataset watcher: reload failed", slog.String("error", err.Error()))
		}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if name, _ := filepath.Abs(event.Name); name != absPath {
					continue
				}
				debounced(reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("dataset watcher: error", slog.String("error", err.Error()))
			}
		}
	}()

	slog.Info("dataset watcher: watching", slog.String("path", absPath))
}

func (t *triggers) stopWatchLocked() {
	if t.watchCancel != nil {
		t.watchCancel()
		t.watchCancel = nil
	}
	if t.watcher != nil {
		t.watcher.Close()
		t.watcher = nil
	}
	t.watched = ""
}

func (t *triggers) scheduleLocked(source, expr string) {
	if t.cronSched != nil && t.cronSource == source && t.cronExpr == expr {
		return
	}
	t.stopCronLocked()

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		slog.Info("dataset refresh: re-fetching", slog.String("url", source))
		if _, err := t.ws.Reload(context.Background()); err != nil {
			slog.Warn("dataset refresh: failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		slog.Warn("dataset refresh: invalid schedule",
			slog.String("schedule", expr),
			slog.String("error", err.Error()),
		)
		return
	}
	c.Start()
	t.cronSched = c
	t.cronSource = source
	t.cronExpr = expr
	slog.Info("dataset refresh: scheduled", slog.String("url", source), slog.String("schedule", expr))
}

func (t *triggers) stopCronLocked() {
	if t.cronSched != nil {
		t.cronSched.Stop()
		t.cronSched = nil
	}
	t.cronSource = ""
	t.cronExpr = ""
}
