package gui

import (
	"fmt"
	"log/slog"
	"sync"

	. "modernc.org/tk9.0"

	"github.com/okapilab/gitlanes/internal/notify"
)

type autoRefreshState struct {
	mu         sync.Mutex
	configured bool
	enabled    bool
	sub        notify.Disposable
}

func (a *Controller) initAutoRefresh(requested bool) {
	a.state.watch.mu.Lock()
	a.state.watch.configured = requested
	a.state.watch.mu.Unlock()
	if requested {
		if err := a.enableAutoRefresh(); err != nil {
			slog.Error("auto refresh disabled", slog.Any("error", err))
			a.state.watch.mu.Lock()
			a.state.watch.configured = false
			a.state.watch.mu.Unlock()
		}
	}
	a.updateReloadButtonLabel()
}

// enableAutoRefresh subscribes to repository change notifications. Settled
// head changes are handed to the coordinator, which drops heads already on
// screen and serializes the refreshes that remain.
func (a *Controller) enableAutoRefresh() error {
	a.state.watch.mu.Lock()
	defer a.state.watch.mu.Unlock()
	if !a.state.watch.configured {
		return nil
	}
	if a.state.watch.enabled {
		return nil
	}
	sub, err := notify.Subscribe(a.repo.path, a.repo.path, a.provider.LatestHead, func(hc notify.HeadChange) {
		a.coord.Enqueue(hc.Head)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	a.state.watch.sub = sub
	a.state.watch.enabled = true
	return nil
}

func (a *Controller) disableAutoRefresh() {
	a.state.watch.mu.Lock()
	defer a.state.watch.mu.Unlock()
	if a.state.watch.sub != nil {
		if err := a.state.watch.sub.Close(); err != nil {
			slog.Error("close repository watch", slog.Any("error", err))
		}
		a.state.watch.sub = nil
	}
	a.state.watch.enabled = false
}

func (a *Controller) shutdown() {
	a.disableAutoRefresh()
	a.coord.Reset()
}

func (a *Controller) updateReloadButtonLabel() {
	if a.ui.reloadButton == nil {
		return
	}
	label := "Reload"
	a.state.watch.mu.Lock()
	configured := a.state.watch.configured
	enabled := a.state.watch.enabled
	a.state.watch.mu.Unlock()
	if configured {
		state := "Off"
		if enabled {
			state = "On"
		}
		label = fmt.Sprintf("Reload (Auto %s)", state)
	}
	a.ui.reloadButton.Configure(Txt(label))
}

// onReloadButton reloads manually; when auto refresh was requested on the
// command line the button doubles as its on/off toggle.
func (a *Controller) onReloadButton() {
	a.state.watch.mu.Lock()
	configured := a.state.watch.configured
	enabled := a.state.watch.enabled
	a.state.watch.mu.Unlock()
	if !configured {
		a.loadCommitsAsync(false)
		return
	}
	if enabled {
		a.disableAutoRefresh()
	} else {
		if err := a.enableAutoRefresh(); err != nil {
			slog.Error("auto refresh enable failed", slog.Any("error", err))
		}
	}
	a.updateReloadButtonLabel()
	a.loadCommitsAsync(false)
}
