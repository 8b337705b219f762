// Package file reads recordings from local paths, globs and directories.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/recording"
)

// Stdin is the target name that reads a recording from standard input.
const Stdin = "-"

func init() {
	connector.Register("file", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements connector.Connector over the local filesystem.
type Connector struct{}

// Query loads every recording the targets resolve to, in target order.
// Directories contribute their .json files sorted by name.
func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Recording, error) {
	paths, err := Expand(connector.Targets(cfg, params))
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("file connector: no recordings matched")
	}
	if params.Limit > 0 && len(paths) > params.Limit {
		paths = paths[:params.Limit]
	}

	recs := make([]model.Recording, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := Load(p)
		if err != nil {
			return nil, fmt.Errorf("file connector: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Stream sends each recording under cfg.Endpoint and closes the channel.
// Files that fail to load are logged and skipped.
func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.Recording, error) {
	paths, err := Expand(connector.Targets(cfg, connector.QueryParams{}))
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}

	ch := make(chan model.Recording, 16)
	go func() {
		defer close(ch)
		for _, p := range paths {
			rec, err := Load(p)
			if err != nil {
				slog.Warn("skipping recording", "connector", "file", "path", p, "error", err)
				continue
			}
			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Expand resolves targets into file paths. Globs expand to their sorted
// matches, directories to their recording files, and anything else is kept
// as given.
func Expand(targets []string) ([]string, error) {
	var out []string
	for _, t := range targets {
		if t == Stdin {
			out = append(out, t)
			continue
		}
		if strings.ContainsAny(t, "*?[") {
			matches, err := filepath.Glob(t)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", t, err)
			}
			sort.Strings(matches)
			out = append(out, matches...)
			continue
		}
		info, err := os.Stat(t)
		if err == nil && info.IsDir() {
			files, err := ListDir(t)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// ListDir returns the recording files directly inside dir, sorted by name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if IsRecording(path) {
			out = append(out, path)
		}
	}
	return out, nil
}

// IsRecording reports whether path names a visible .json file.
func IsRecording(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}

// Load decodes the recording at path, or standard input for Stdin.
func Load(path string) (model.Recording, error) {
	if path == Stdin {
		return recording.DecodeReader(os.Stdin, "stdin")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Recording{}, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := recording.Decode(data, path)
	if err != nil {
		return model.Recording{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}
