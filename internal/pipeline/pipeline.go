package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/output"
)

const defaultWorkers = 4

// Processor turns a recording into its summary. *engine.Engine satisfies it.
type Processor interface {
	Process(rec model.Recording) model.Summary
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many recordings Query summarizes at once. Default: 4.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithMetrics records pipeline activity on m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline connects a connector, processor, and output into a processing pipeline.
type Pipeline struct {
	connector connector.Connector
	processor Processor
	output    output.Output
	workers   int
	metrics   *Metrics
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, proc Processor, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		processor: proc,
		output:    out,
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Stream summarizes recordings as the connector delivers them. A summary the
// output rejects is logged and skipped. Blocks until the context is cancelled
// or the connector closes its channel.
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) error {
	ch, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-ch:
			if !ok {
				return nil
			}
			summary := p.summarize("stream", rec)
			if err := p.output.Write(ctx, summary); err != nil {
				p.metrics.outputError()
				slog.Warn("skipping summary", "source", rec.Source, "id", summary.ID, "error", err)
				continue
			}
			slog.Debug("summary written", "source", rec.Source, "nodes", len(summary.Nodes))
		}
	}
}

// Query runs the pipeline in one-shot query mode. Recordings are summarized
// concurrently and written in the order the connector returned them; any
// failure aborts the run.
func (p *Pipeline) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) error {
	recs, err := p.connector.Query(ctx, cfg, params)
	if err != nil {
		return fmt.Errorf("pipeline query: %w", err)
	}

	summaries := make([]model.Summary, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, rec := range recs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i] = p.summarize("query", rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pipeline query: %w", err)
	}

	for _, s := range summaries {
		if err := p.output.Write(ctx, s); err != nil {
			p.metrics.outputError()
			return fmt.Errorf("pipeline output: %w", err)
		}
	}
	slog.Debug("query complete", "recordings", len(summaries))
	return nil
}

func (p *Pipeline) summarize(mode string, rec model.Recording) model.Summary {
	start := time.Now()
	s := p.processor.Process(rec)
	p.metrics.observe(mode, s, time.Since(start))
	return s
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
