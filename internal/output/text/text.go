// Package text renders summaries as a human-readable timeline.
//
// Each node prints as
//
//	Timestamp: 00:01 - 00:04
//	Mouse Movement
//	Key: value
//
// Group nodes print "Label: N events" and their children indented below.
// Nodes are separated by a blank line.
package text

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/output"
)

const indentUnit = "  "

// Option configures a text Output.
type Option func(*Output)

// WithExpanded prints FullDetails in place of Details for truncated nodes.
func WithExpanded() Option {
	return func(o *Output) { o.expanded = true }
}

// WithHeader prints a one-line recording header before each timeline.
func WithHeader() Option {
	return func(o *Output) { o.header = true }
}

// Output writes text timelines to a writer.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity limiter.Verbosity
	expanded  bool
	header    bool
}

// New creates a text Output on stdout.
func New(verbosity limiter.Verbosity, opts ...Option) *Output {
	return NewWriter(os.Stdout, verbosity, opts...)
}

// NewWriter creates a text Output on w.
func NewWriter(w io.Writer, verbosity limiter.Verbosity, opts ...Option) *Output {
	o := &Output{w: w, verbosity: verbosity}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) Write(_ context.Context, summary model.Summary) error {
	var buf bytes.Buffer
	r := newRenderer(&buf, o.expanded)
	if o.header {
		r.header(summary)
	}
	r.nodes(output.FormatSummary(summary, o.verbosity).Nodes, 0)

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("text output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

// Render writes the timeline for nodes to w.
func Render(w io.Writer, nodes []model.SummaryNode) error {
	var buf bytes.Buffer
	newRenderer(&buf, false).nodes(nodes, 0)
	_, err := w.Write(buf.Bytes())
	return err
}

// renderer is single-use: cases.Caser keeps state between calls.
type renderer struct {
	buf      *bytes.Buffer
	title    cases.Caser
	expanded bool
}

func newRenderer(buf *bytes.Buffer, expanded bool) *renderer {
	return &renderer{
		buf:      buf,
		title:    cases.Title(language.English, cases.NoLower),
		expanded: expanded,
	}
}

func (r *renderer) header(s model.Summary) {
	source := s.Source
	if source == "" {
		source = s.ID
	}
	fmt.Fprintf(r.buf, "Recording: %s (%d events, %s)\n\n", source, s.EventCount, output.FormatTimestamp(s.Duration))
}

func (r *renderer) nodes(nodes []model.SummaryNode, depth int) {
	for i, n := range nodes {
		if i > 0 {
			r.buf.WriteByte('\n')
		}
		r.node(n, depth)
	}
}

func (r *renderer) node(n model.SummaryNode, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	r.buf.WriteString(indent + "Timestamp: " + output.FormatTimestamp(n.TimestampStart))
	if n.TimestampEnd != nil {
		r.buf.WriteString(" - " + output.FormatTimestamp(*n.TimestampEnd))
	}
	r.buf.WriteByte('\n')

	if n.IsGroup() {
		fmt.Fprintf(r.buf, "%s%s: %d events\n", indent, n.Label, len(n.Children))
		r.nodes(n.Children, depth+1)
		return
	}

	label := n.Label
	if n.Truncated && !(r.expanded && n.FullDetails != nil) {
		label += " (truncated)"
	}
	r.buf.WriteString(indent + label + "\n")

	details := n.Details
	if r.expanded && n.Truncated && n.FullDetails != nil {
		details = n.FullDetails
	}
	r.details(details, indent)
}

func (r *renderer) details(details any, indent string) {
	switch d := details.(type) {
	case nil:
	case *model.Object:
		for pair := d.Oldest(); pair != nil; pair = pair.Next() {
			r.line(indent, pair.Key, pair.Value)
		}
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.line(indent, k, d[k])
		}
	default:
		r.line(indent, "details", d)
	}
}

func (r *renderer) line(indent, key string, value any) {
	fmt.Fprintf(r.buf, "%s%s: %s\n", indent, r.title.String(key), r.value(value))
}

func (r *renderer) value(v any) string {
	switch v.(type) {
	case *model.Object, map[string]any, []any:
		var b bytes.Buffer
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return model.Display(v)
		}
		return strings.TrimSuffix(b.String(), "\n")
	default:
		return model.Display(v)
	}
}
