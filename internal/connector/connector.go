package connector

import (
	"context"

	"github.com/crimson-sun/recap/internal/model"
)

// Connector defines the interface all recording sources must implement.
type Connector interface {
	// Stream opens a long-lived source and sends recordings as they arrive.
	// The channel is closed when the source is exhausted or ctx is cancelled.
	Stream(ctx context.Context, cfg ConnectorConfig) (<-chan model.Recording, error)

	// Query fetches a batch of recordings matching the given parameters.
	Query(ctx context.Context, cfg ConnectorConfig, params QueryParams) ([]model.Recording, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider string
	APIKey   string
	Endpoint string // directory, glob or URL depending on the provider
	Extra    map[string]string
}

// QueryParams selects which recordings a Query returns.
type QueryParams struct {
	Targets []string // paths, globs or URLs; empty falls back to ConnectorConfig.Endpoint
	Limit   int      // 0 means no limit
}

// Targets returns params.Targets, or the endpoint when none were given.
func Targets(cfg ConnectorConfig, params QueryParams) []string {
	if len(params.Targets) > 0 {
		return params.Targets
	}
	if cfg.Endpoint != "" {
		return []string{cfg.Endpoint}
	}
	return nil
}
