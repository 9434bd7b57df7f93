package task

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/orgsuite/taskengine/internal/eventbus"
)

// FileWatcher publishes change events for task documents edited outside
// the server (operators fixing YAML by hand is a supported workflow with
// local storage). API writes publish their own events; this only covers
// the out-of-band path, so watchers and dispatchers still converge.
type FileWatcher struct {
	repo Repository
	bus  *eventbus.Bus
	dir  string
}

// NewFileWatcher watches the task directory under the local storage base
// dir.
func NewFileWatcher(repo Repository, bus *eventbus.Bus, baseDir string) *FileWatcher {
	return &FileWatcher{
		repo: repo,
		bus:  bus,
		dir:  filepath.Join(baseDir, "tasks"),
	}
}

// Start blocks until ctx is cancelled, publishing a task.updated event
// for every task document written on disk.
func (w *FileWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// The directory only appears with the first task write; create it so
	// the watch can start on a fresh store.
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	slog.Info("task file watcher started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".yaml") {
				continue
			}
			w.publish(ctx, strings.TrimSuffix(name, ".yaml"))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("task file watcher error", "error", err)
		}
	}
}

func (w *FileWatcher) publish(ctx context.Context, id string) {
	t, err := w.repo.Get(ctx, id)
	if err != nil {
		// Partial write or a non-task file; the next write wins.
		return
	}
	w.bus.PublishNew(eventbus.EventTaskUpdated, t.OrganizationID, t.ID, "", map[string]string{
		"source": "file",
	})
}
