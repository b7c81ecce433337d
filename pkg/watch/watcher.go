// Package watch rebuilds a workspace whenever one of its manifests changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/cargows/cargows/pkg/telemetry"
	"github.com/cargows/cargows/pkg/workspace"
)

// DefaultDelay is how long the watcher waits after the last change before rebuilding.
const DefaultDelay = 500 * time.Millisecond

// BuildFunc produces a fresh workspace.
type BuildFunc func(ctx context.Context) (*workspace.Workspace, error)

// Handler receives the result of every build. Exactly one of ws and err is non-nil.
type Handler func(ws *workspace.Workspace, err error)

// Watcher watches the manifest directories of a workspace.
type Watcher struct {
	logger       zerolog.Logger
	manifestPath string
	build        BuildFunc
	delay        time.Duration

	watcher *fsnotify.Watcher
	dirs    map[string]bool

	buildMu sync.Mutex
	mu      sync.Mutex
	timer   *time.Timer
	done    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.delay = d
	}
}

// New creates a watcher for the workspace rooted at manifestPath.
func New(logger zerolog.Logger, manifestPath string, build BuildFunc, opts ...Option) *Watcher {
	w := &Watcher{
		logger:       logger.With().Str("component", "watch").Logger(),
		manifestPath: manifestPath,
		build:        build,
		delay:        DefaultDelay,
		dirs:         make(map[string]bool),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch builds the workspace once, then rebuilds after every debounced change
// to a Cargo.toml or Cargo.lock in the workspace root or a member directory.
// It returns once watching has started; events are processed until ctx is
// cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context, onBuild Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher

	if err := w.addDir(filepath.Dir(w.manifestPath)); err != nil {
		_ = watcher.Close()
		return err
	}

	w.rebuild(ctx, onBuild)

	go w.processEvents(ctx, onBuild)

	w.logger.Info().
		Str("manifest", w.manifestPath).
		Int("dirs", len(w.Dirs())).
		Msg("Started watching workspace")

	return nil
}

// Done is closed once the watcher has stopped processing events.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// Dirs returns the directories currently watched.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		dirs = append(dirs, dir)
	}
	return dirs
}

func (w *Watcher) addDir(dir string) error {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[dir] {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", dir)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	return nil
}

// processEvents processes file system events and triggers rebuilds.
func (w *Watcher) processEvents(ctx context.Context, onBuild Handler) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsManifestEvent(event) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Manifest changed")
			if tel := telemetry.FromTelemetryContext(ctx); tel != nil {
				_ = tel.Events.PublishManifestChanged(w.manifestPath, event.Name, event.Op.String())
			}

			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.delay, func() {
				w.rebuild(ctx, onBuild)
			})
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// rebuild builds a new workspace and starts watching any new member directories.
func (w *Watcher) rebuild(ctx context.Context, onBuild Handler) {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	ws, err := w.build(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to rebuild workspace")
		onBuild(nil, err)
		return
	}

	for _, dir := range MemberDirs(ws) {
		if err := w.addDir(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to watch member directory")
		}
	}

	w.logger.Info().
		Int("packages", ws.Len()).
		Msg("Workspace rebuilt")
	onBuild(ws, nil)
}

// MemberDirs returns the workspace root and the manifest directory of every member.
func MemberDirs(ws *workspace.Workspace) []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	add(ws.WorkspaceRoot())
	for _, pkg := range ws.Members() {
		add(ws.Package(pkg).Root())
	}
	return dirs
}

// IsManifestEvent reports whether event changes a Cargo.toml or Cargo.lock.
func IsManifestEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	switch filepath.Base(event.Name) {
	case "Cargo.toml", "Cargo.lock":
		return true
	default:
		return false
	}
}
