package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/recap/internal/engine/classifier"
	"github.com/crimson-sun/recap/internal/engine/grouper"
	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/engine/taxonomy"
	"github.com/crimson-sun/recap/internal/model"
)

// Engine orchestrates the classify → group pipeline.
type Engine struct {
	classifier *classifier.Classifier
	grouper    *grouper.Grouper
	now        func() time.Time
}

// New creates an Engine with the provided components.
func New(cls *classifier.Classifier, grp *grouper.Grouper) *Engine {
	return &Engine{
		classifier: cls,
		grouper:    grp,
		now:        time.Now,
	}
}

// Options describes an Engine in configuration terms.
type Options struct {
	Table        *taxonomy.Table
	Limits       limiter.Policy
	SpanMode     classifier.SpanMode
	TrackWindows bool
}

// DefaultOptions returns the default table, standard limits and per-gesture spans.
func DefaultOptions() Options {
	return Options{
		Table:  taxonomy.Default(),
		Limits: limiter.DefaultPolicy(),
	}
}

// Build wires a classifier and grouper sharing one policy table.
func Build(opts Options) *Engine {
	if opts.Table == nil {
		opts.Table = taxonomy.Default()
	}
	cls := classifier.New(classifier.Options{
		Table:        opts.Table,
		Limits:       opts.Limits,
		SpanMode:     opts.SpanMode,
		TrackWindows: opts.TrackWindows,
	})
	grp := grouper.New(grouper.Config{Table: opts.Table})
	return New(cls, grp)
}

// Summarize classifies events and groups the result. An empty input yields
// an empty, non-nil list.
func (e *Engine) Summarize(events []model.RawEvent) []model.SummaryNode {
	return e.grouper.Group(e.classifier.Classify(events))
}

// Process summarizes one recording.
func (e *Engine) Process(rec model.Recording) model.Summary {
	var duration int64
	if n := len(rec.Events); n > 0 {
		duration = rec.Events[n-1].Timestamp - rec.Events[0].Timestamp
	}
	return model.Summary{
		ID:          uuid.NewString(),
		Source:      rec.Source,
		EventCount:  len(rec.Events),
		Duration:    duration,
		Nodes:       e.Summarize(rec.Events),
		GeneratedAt: e.now().UTC(),
	}
}

// ProcessBatch summarizes each recording in order.
func (e *Engine) ProcessBatch(recs []model.Recording) []model.Summary {
	out := make([]model.Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, e.Process(rec))
	}
	return out
}
