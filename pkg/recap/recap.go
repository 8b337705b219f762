package recap

import (
	"fmt"
	"io"

	"github.com/crimson-sun/recap/internal/config"
	"github.com/crimson-sun/recap/internal/engine"
	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/engine/taxonomy"
	"github.com/crimson-sun/recap/internal/output"
	"github.com/crimson-sun/recap/internal/output/text"
	"github.com/crimson-sun/recap/internal/recording"
)

// ErrNoSnapshots is returned when a recording document has no event list.
var ErrNoSnapshots = recording.ErrNoSnapshots

// Summarizer turns recordings into summaries.
// Safe for concurrent use.
type Summarizer struct {
	engine    *engine.Engine
	table     *taxonomy.Table
	verbosity limiter.Verbosity
}

// New creates a Summarizer. It fails only when the span mode is unknown or
// the policy cannot be loaded.
func New(opts ...Option) (*Summarizer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.EngineConfig{
		Verbosity:        o.verbosity,
		MaxStringLength:  o.maxStringLength,
		MaxContainerSize: o.maxContainerSize,
		SpanMode:         o.spanMode,
		Policy:           o.policy,
		PolicyFile:       o.policyFile,
		TrackWindows:     o.trackWindows,
	}
	eopts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("recap: %w", err)
	}

	return &Summarizer{
		engine:    engine.Build(eopts),
		table:     eopts.Table,
		verbosity: cfg.VerbosityLevel(),
	}, nil
}

// Summarize condenses events into summary nodes. Empty input yields an empty,
// non-nil slice.
func (s *Summarizer) Summarize(events []Event) []Node {
	return s.engine.Summarize(events)
}

// SummarizeJSON decodes a recording document (an export wrapper, a
// {"snapshots": [...]} object or a bare event array) and summarizes it.
func (s *Summarizer) SummarizeJSON(data []byte) ([]Node, error) {
	rec, err := recording.Decode(data, "")
	if err != nil {
		return nil, err
	}
	return s.engine.Summarize(rec.Events), nil
}

// SummarizeRecording decodes a recording document into a Summary carrying
// source, event count and duration. At "minimal" verbosity full details are
// left out.
func (s *Summarizer) SummarizeRecording(data []byte, source string) (Summary, error) {
	rec, err := recording.Decode(data, source)
	if err != nil {
		return Summary{}, err
	}
	return output.FormatSummary(s.engine.Process(rec), s.verbosity), nil
}

// SummarizeReader reads a recording document from r and summarizes it.
func (s *Summarizer) SummarizeReader(r io.Reader, source string) (Summary, error) {
	rec, err := recording.DecodeReader(r, source)
	if err != nil {
		return Summary{}, err
	}
	return output.FormatSummary(s.engine.Process(rec), s.verbosity), nil
}

// RenderText writes nodes as an indented text timeline.
func RenderText(w io.Writer, nodes []Node) error {
	return text.Render(w, nodes)
}

// FormatTimestamp renders relative milliseconds as "MM:SS". Minutes are not
// capped at 60.
func FormatTimestamp(ms int64) string {
	return output.FormatTimestamp(ms)
}
