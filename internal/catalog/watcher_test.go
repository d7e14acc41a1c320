package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWatcher(t *testing.T, notify func(Update)) (*Watcher, *atomic.Value) {
	t.Helper()

	workbook := catalogWorkbook(t)
	var version atomic.Value
	version.Store("Mon, 04 May 2026 10:00:00 GMT")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", version.Load().(string))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(workbook)
	}))
	t.Cleanup(server.Close)

	store := NewStore()
	loader := NewLoader(server.URL, store)
	_, err := loader.Load(context.Background())
	require.NoError(t, err)

	return NewWatcher(loader, notify), &version
}

func TestWatcher_ProbeNoticesUpdate(t *testing.T) {
	var notified atomic.Int32
	watcher, version := setupWatcher(t, func(Update) { notified.Add(1) })
	ctx := context.Background()

	// Source unchanged, nothing to notice.
	watcher.Probe(ctx)
	assert.Nil(t, watcher.Pending())
	assert.Equal(t, int32(0), notified.Load())

	version.Store("Tue, 05 May 2026 09:00:00 GMT")
	watcher.Probe(ctx)

	pending := watcher.Pending()
	require.NotNil(t, pending)
	assert.Equal(t, "Tue, 05 May 2026 09:00:00 GMT", pending.Version)
	assert.Equal(t, int32(1), notified.Load())

	// A second probe keeps the existing notification instead of raising
	// a duplicate.
	watcher.Probe(ctx)
	assert.Equal(t, int32(1), notified.Load())
}

func TestWatcher_Dismiss(t *testing.T) {
	watcher, version := setupWatcher(t, nil)

	version.Store("Tue, 05 May 2026 09:00:00 GMT")
	watcher.Probe(context.Background())
	require.NotNil(t, watcher.Pending())

	watcher.Dismiss()
	assert.Nil(t, watcher.Pending())

	// Dismissing again is a no-op.
	watcher.Dismiss()
}

func TestWatcher_AutoDismiss(t *testing.T) {
	watcher, version := setupWatcher(t, nil)
	watcher.DismissAfter = 20 * time.Millisecond

	version.Store("Tue, 05 May 2026 09:00:00 GMT")
	watcher.Probe(context.Background())
	require.NotNil(t, watcher.Pending())

	require.Eventually(t, func() bool {
		return watcher.Pending() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestWatcher_AcceptReloads(t *testing.T) {
	watcher, version := setupWatcher(t, nil)

	version.Store("Tue, 05 May 2026 09:00:00 GMT")
	watcher.Probe(context.Background())
	require.NotNil(t, watcher.Pending())

	count, err := watcher.Accept(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Nil(t, watcher.Pending())
}
