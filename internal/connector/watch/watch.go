// Package watch streams recordings dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/connector/file"
	"github.com/crimson-sun/recap/internal/model"
)

const debounceDefault = 200 * time.Millisecond

func init() {
	connector.Register("watch", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements connector.Connector for a watched directory
// (ConnectorConfig.Endpoint).
//
// Extra keys: "debounce" (duration, default 200ms) delays reading a file
// until writes settle; "existing" ("true") sends files already present
// before watching starts.
type Connector struct{}

// Query loads the recordings currently in the directory.
func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Recording, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("watch connector: no directory given")
	}
	paths, err := file.ListDir(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("watch connector: %w", err)
	}
	if params.Limit > 0 && len(paths) > params.Limit {
		paths = paths[:params.Limit]
	}

	recs := make([]model.Recording, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := file.Load(p)
		if err != nil {
			return nil, fmt.Errorf("watch connector: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Stream watches the directory and sends every recording file that is
// created or rewritten. Files that fail to decode are logged and skipped.
func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.Recording, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("watch connector: no directory given")
	}

	debounce := debounceDefault
	if raw := cfg.Extra["debounce"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			debounce = d
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch connector: failed to create watcher: %w", err)
	}
	if err := watcher.Add(cfg.Endpoint); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch connector: failed to watch %q: %w", cfg.Endpoint, err)
	}

	var existing []string
	if cfg.Extra["existing"] == "true" {
		if existing, err = file.ListDir(cfg.Endpoint); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch connector: %w", err)
		}
	}

	ch := make(chan model.Recording, 16)
	w := &dirWatcher{watcher: watcher, debounce: debounce, out: ch}
	go w.run(ctx, existing)
	return ch, nil
}

type dirWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	out      chan<- model.Recording
}

func (w *dirWatcher) run(ctx context.Context, existing []string) {
	defer close(w.out)
	defer w.watcher.Close()

	if !w.send(ctx, existing) {
		return
	}

	// Paths that saw events since the last flush. A single timer resets on
	// each event and flushes the whole set when it fires.
	ready := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C:
			batch := make([]string, 0, len(ready))
			for p := range ready {
				batch = append(batch, p)
			}
			ready = make(map[string]bool)
			sort.Strings(batch)
			if !w.send(ctx, batch) {
				return
			}

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !file.IsRecording(event.Name) {
				continue
			}
			ready[event.Name] = true

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "connector", "watch", "error", err)
		}
	}
}

// send loads and forwards each path. Returns false once ctx is done.
func (w *dirWatcher) send(ctx context.Context, paths []string) bool {
	for _, p := range paths {
		rec, err := file.Load(p)
		if err != nil {
			slog.Warn("skipping recording", "connector", "watch", "path", p, "error", err)
			continue
		}
		select {
		case w.out <- rec:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
