package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Update is a pending catalog-update notification.
type Update struct {
	NoticedAt time.Time
	Version   string
}

// Watcher periodically probes the catalog source for a newer version
// and raises a dismissible notification. A notification auto-dismisses
// after a fixed window unless the user accepts it, which reloads the
// catalog.
type Watcher struct {
	loader       *Loader
	notify       func(Update)
	pending      *Update
	dismissTimer *time.Timer
	Interval     time.Duration
	DismissAfter time.Duration
	mu           sync.Mutex
}

// NewWatcher creates a watcher over the given loader. notify is called
// once per noticed update; it may be nil.
func NewWatcher(loader *Loader, notify func(Update)) *Watcher {
	return &Watcher{
		loader:       loader,
		notify:       notify,
		Interval:     5 * time.Minute,
		DismissAfter: 30 * time.Second,
	}
}

// Run probes the source on a fixed interval until the context is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Dismiss()
			return
		case <-ticker.C:
			w.Probe(ctx)
		}
	}
}

// Probe performs one update check. Probe failures are logged and
// swallowed: an unreachable source is normal offline behavior.
func (w *Watcher) Probe(ctx context.Context) {
	version, changed, err := w.loader.Check(ctx)
	if err != nil {
		slog.Debug("Catalog update check failed", "error", err)
		return
	}
	if !changed {
		return
	}

	w.mu.Lock()
	if w.pending != nil {
		w.mu.Unlock()
		return
	}
	update := Update{Version: version, NoticedAt: time.Now()}
	w.pending = &update
	w.dismissTimer = time.AfterFunc(w.DismissAfter, w.Dismiss)
	w.mu.Unlock()

	slog.Info("Catalog update available", "version", version)
	if w.notify != nil {
		w.notify(update)
	}
}

// Pending returns the current notification, or nil.
func (w *Watcher) Pending() *Update {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Dismiss clears the pending notification. Dismissing when nothing is
// pending is a no-op.
func (w *Watcher) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dismissTimer != nil {
		w.dismissTimer.Stop()
		w.dismissTimer = nil
	}
	w.pending = nil
}

// Accept dismisses the notification and reloads the catalog.
func (w *Watcher) Accept(ctx context.Context) (int, error) {
	w.Dismiss()
	return w.loader.Load(ctx)
}
