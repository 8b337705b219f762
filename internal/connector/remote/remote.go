// Package remote fetches recordings over HTTP.
package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/connector/httpclient"
	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/recording"
)

const defaultPollInterval = 30 * time.Second

func init() {
	connector.Register("http", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements connector.Connector for recordings served over HTTP.
// Targets are absolute URLs or paths relative to ConnectorConfig.Endpoint.
type Connector struct{}

// Query downloads each target in order.
func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Recording, error) {
	targets := connector.Targets(cfg, params)
	if len(targets) == 0 {
		return nil, fmt.Errorf("http connector: no URL given")
	}
	if params.Limit > 0 && len(targets) > params.Limit {
		targets = targets[:params.Limit]
	}

	client := newClient(cfg)
	recs := make([]model.Recording, 0, len(targets))
	for _, t := range targets {
		rec, err := fetch(ctx, client, resolve(cfg.Endpoint, t))
		if err != nil {
			return nil, fmt.Errorf("http connector: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Stream polls cfg.Endpoint and sends the recording whenever its content
// changes. The poll interval comes from Extra["poll_interval"].
func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.Recording, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http connector: no URL given")
	}

	pollInterval := defaultPollInterval
	if raw := cfg.Extra["poll_interval"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			pollInterval = d
		}
	}

	client := newClient(cfg)
	ch := make(chan model.Recording, 4)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		var last []byte
		last = poll(ctx, client, cfg.Endpoint, last, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				last = poll(ctx, client, cfg.Endpoint, last, ch)
			}
		}
	}()
	return ch, nil
}

func newClient(cfg connector.ConnectorConfig) *httpclient.Client {
	var opts []httpclient.Option
	if raw := cfg.Extra["timeout"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			opts = append(opts, httpclient.WithTimeout(d))
		}
	}
	return httpclient.New("", cfg.APIKey, opts...)
}

func fetch(ctx context.Context, client *httpclient.Client, url string) (model.Recording, error) {
	body, err := client.Get(ctx, url, nil)
	if err != nil {
		return model.Recording{}, fmt.Errorf("get %s: %w", url, err)
	}
	rec, err := recording.Decode(body, url)
	if err != nil {
		return model.Recording{}, fmt.Errorf("decode %s: %w", url, err)
	}
	return rec, nil
}

// poll fetches url and sends it when its digest differs from last.
// Returns the digest to compare against next time.
func poll(ctx context.Context, client *httpclient.Client, url string, last []byte, ch chan<- model.Recording) []byte {
	body, err := client.Get(ctx, url, nil)
	if err != nil {
		slog.Warn("poll error", "connector", "http", "url", url, "error", err)
		return last
	}
	sum := sha256.Sum256(body)
	if bytes.Equal(sum[:], last) {
		return last
	}

	rec, err := recording.Decode(body, url)
	if err != nil {
		slog.Warn("skipping recording", "connector", "http", "url", url, "error", err)
		return sum[:]
	}
	select {
	case ch <- rec:
	case <-ctx.Done():
		return last
	}
	return sum[:]
}

// resolve joins a relative target onto base. Absolute URLs pass through.
func resolve(base, target string) string {
	if strings.Contains(target, "://") || base == "" || target == base {
		return target
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
}
