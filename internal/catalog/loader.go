package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/service"
)

// Loader fetches the catalog source document and replaces the store's
// contents with it. The source is either an http(s) URL or a local
// file path; the version marker is the server's Last-Modified/ETag or
// the file's modification time.
type Loader struct {
	client       *http.Client
	store        *Store
	source       string
	ShowProgress bool
}

// NewLoader creates a loader for the configured catalog source.
func NewLoader(source string, store *Store) *Loader {
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		store:  store,
		source: source,
	}
}

// Source returns the configured source location.
func (l *Loader) Source() string {
	return l.source
}

// Load fetches the source, parses it and replaces the catalog
// wholesale. It returns the number of products loaded. Fetching is
// retried with backoff; a failure leaves the current catalog intact
// so the caller can keep working from cached data.
func (l *Loader) Load(ctx context.Context) (int, error) {
	var (
		data    []byte
		version string
	)

	err := common.WithRetry(ctx, func() error {
		var fetchErr error
		data, version, fetchErr = l.fetch(ctx)
		return fetchErr
	}, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDataLoad, err)
	}

	products, err := ReadProducts(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}

	l.store.Replace(products, version, time.Now())
	return len(products), nil
}

// Check probes the source for a newer version without downloading it.
// It reports the server-side version marker and whether it differs
// from the marker of the last successful load.
func (l *Loader) Check(ctx context.Context) (string, bool, error) {
	version, err := l.remoteVersion(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", common.ErrDataLoad, err)
	}

	current := l.store.Version()
	return version, current != "" && version != current, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, string, error) {
	if !isURL(l.source) {
		return l.readFile()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", &common.RetryableError{Err: err, Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500
		return nil, "", &common.RetryableError{
			Err:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
			Retryable: retryable,
		}
	}

	var body io.Reader = resp.Body
	if l.ShowProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading catalog")
		body = io.TeeReader(resp.Body, bar)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", &common.RetryableError{Err: err, Retryable: true}
	}

	return data, headerVersion(resp.Header), nil
}

func (l *Loader) readFile() ([]byte, string, error) {
	info, err := os.Stat(l.source)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(l.source)
	if err != nil {
		return nil, "", err
	}

	return data, info.ModTime().UTC().Format(time.RFC3339), nil
}

func (l *Loader) remoteVersion(ctx context.Context) (string, error) {
	if !isURL(l.source) {
		info, err := os.Stat(l.source)
		if err != nil {
			return "", err
		}
		return info.ModTime().UTC().Format(time.RFC3339), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, l.source, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return headerVersion(resp.Header), nil
}

// headerVersion picks the server version marker, preferring
// Last-Modified over ETag.
func headerVersion(h http.Header) string {
	if v := h.Get("Last-Modified"); v != "" {
		return v
	}
	if v := h.Get("ETag"); v != "" {
		return v
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// RestoreFromSnapshot primes the store from a persisted snapshot so
// the app can work offline before the first sync of a run.
func (l *Loader) RestoreFromSnapshot(snapshot *model.Snapshot) {
	l.store.Replace(snapshot.Products, snapshot.CatalogVersion, snapshot.SyncedAt)
}
