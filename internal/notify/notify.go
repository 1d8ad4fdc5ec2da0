// Package notify turns filesystem activity in a repository's .git directory
// into debounced head-change notifications.
package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okapilab/gitlanes/internal/debounce"
)

const defaultDebounceDelay = 350 * time.Millisecond

// HeadChange is one change notification: the repository context it belongs to
// and the head commit observed after the change settled.
type HeadChange struct {
	ContextID string
	Head      string
}

type Handler func(HeadChange)

// Disposable tears down a subscription. Close is idempotent; it reports the
// first teardown error but always completes the teardown.
type Disposable interface {
	Close() error
}

type subscription struct {
	contextID   string
	resolveHead func() (string, error)
	handler     Handler

	mu       sync.Mutex
	closed   bool
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
}

// Subscribe watches the repository at repoRoot and invokes handler with the
// new head once a burst of filesystem events settles. resolveHead is consulted
// after the debounce window, so the delivered head reflects the repository
// state at delivery time, not at event time.
func Subscribe(contextID, repoRoot string, resolveHead func() (string, error), handler Handler) (Disposable, error) {
	if handler == nil {
		return nil, errors.New("notify: nil handler")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	path := watchPath(repoRoot)
	if err := watcher.Add(path); err != nil {
		err = errors.Join(err, watcher.Close())
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	sub := &subscription{
		contextID:   contextID,
		resolveHead: resolveHead,
		handler:     handler,
		watcher:     watcher,
	}
	sub.debounce = debounce.New(defaultDebounceDelay, sub.deliver)
	go sub.loop(watcher)
	slog.Debug("repository watch started", slog.String("context", contextID), slog.String("path", path))
	return sub, nil
}

func (s *subscription) loop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnorePath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			s.trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (s *subscription) trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.debounce == nil {
		return
	}
	s.debounce.Trigger()
}

func (s *subscription) deliver() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	head := ""
	if s.resolveHead != nil {
		resolved, err := s.resolveHead()
		if err != nil {
			slog.Error("resolve head after change", slog.String("context", s.contextID), slog.Any("error", err))
			return
		}
		head = resolved
	}
	s.handler(HeadChange{ContextID: s.contextID, Head: head})
}

// Close stops the debouncer and the filesystem watcher. Safe to call more
// than once; later calls are no-ops.
func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
		s.watcher = nil
	}
	return err
}

// watchPath prefers the .git directory so worktree churn doesn't generate
// noise; a bare or detached layout falls back to the root itself.
func watchPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		return gitDir
	}
	return root
}

func shouldIgnorePath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
