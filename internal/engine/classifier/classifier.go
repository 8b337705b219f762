// Package classifier turns raw recording events into a flat list of summary
// nodes: per-kind rules, size-limited payloads and coalesced spans.
package classifier

import (
	"strings"

	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/engine/taxonomy"
	"github.com/crimson-sun/recap/internal/model"
)

// Options configures a Classifier.
type Options struct {
	Table        *taxonomy.Table // nil selects taxonomy.Default()
	Limits       limiter.Policy  // caps applied to attached payloads; exempt keys are set per node kind
	SpanMode     SpanMode
	TrackWindows bool // emit "Window Changed" when the window id changes
}

// DefaultOptions returns the default table, default limits and per-gesture spans.
func DefaultOptions() Options {
	return Options{
		Table:  taxonomy.Default(),
		Limits: limiter.DefaultPolicy(),
	}
}

// Classifier holds no per-call state and is safe for concurrent use.
type Classifier struct {
	opts Options
}

// New creates a Classifier with the given options.
func New(opts Options) *Classifier {
	if opts.Table == nil {
		opts.Table = taxonomy.Default()
	}
	return &Classifier{opts: opts}
}

// Classify walks events once, in order, and returns the flat node list.
// Timestamps are relative to the first event. An empty input yields an
// empty, non-nil list.
func (c *Classifier) Classify(events []model.RawEvent) []model.SummaryNode {
	if len(events) == 0 {
		return []model.SummaryNode{}
	}
	f := newFold(events[0], c.opts.SpanMode)
	for _, ev := range events {
		c.step(f, ev)
	}
	return f.nodes
}

func (c *Classifier) step(f *fold, ev model.RawEvent) {
	rel := ev.Timestamp - f.first

	if c.opts.TrackWindows && ev.WindowID != f.window {
		f.window = ev.WindowID
		f.append(model.SummaryNode{
			Label:          taxonomy.WindowChanged,
			TimestampStart: rel,
			Details:        model.ObjectOf("windowId", ev.WindowID),
		})
	}

	switch ev.Kind {
	case model.Meta:
		if href, ok := model.String(ev.Data, "href"); ok && href != "" {
			f.append(model.SummaryNode{
				Label:          taxonomy.PageNavigation,
				TimestampStart: rel,
				Details:        model.ObjectOf("url", href),
			})
		}
	case model.DomContentLoaded:
		f.append(model.SummaryNode{Label: taxonomy.DomContentLoaded, TimestampStart: rel})
	case model.Load:
		f.append(model.SummaryNode{Label: taxonomy.PageLoad, TimestampStart: rel})
	case model.FullSnapshot:
		f.append(model.SummaryNode{Label: taxonomy.FullSnapshot, TimestampStart: rel})
	case model.Custom:
		f.append(c.limited(taxonomy.CustomEvent, rel, ev.Data, "parentId", "plugin", "tag"))
	case model.Plugin:
		n := c.limited(taxonomy.PluginEvent, rel, ev.Data, "plugin")
		n.Truncated = false
		n.FullDetails = nil
		f.append(n)
	case model.IncrementalSnapshot:
		c.incremental(f, ev, rel)
	default:
		f.append(model.SummaryNode{Label: taxonomy.UnknownEvent, TimestampStart: rel})
	}
}

func (c *Classifier) incremental(f *fold, ev model.RawEvent, rel int64) {
	src := ev.Source()
	rule := c.opts.Table.Rule(src)

	switch rule.Action {
	case taxonomy.Drop:
		return
	case taxonomy.Span:
		f.span(rule.Label, rel)
		return
	}

	switch src {
	case model.Mutation:
		c.mutation(f, ev.Data, rel)
	case model.MouseInteraction:
		c.mouseInteraction(f, ev.Data, rule.Label, rel)
	case model.Input:
		c.input(f, ev.Data, rule.Label, rel)
	case model.ViewportResize:
		f.append(c.limited(rule.Label, rel, ev.Data, "width", "height"))
	default:
		f.append(c.limited(rule.Label, rel, ev.Data))
	}
}

// Interaction codes that never produce a node.
var ignoredInteractions = map[int64]bool{
	model.MouseUp:   true,
	model.MouseDown: true,
	model.Focus:     true,
	model.Blur:      true,
}

func (c *Classifier) mouseInteraction(f *fold, data *model.Object, label string, rel int64) {
	code, ok := model.Int(data, "type")
	if !ok {
		code = -1
	}
	if ignoredInteractions[code] {
		return
	}
	details := model.ObjectOf(
		"element", elementRef(data),
		"interactionType", model.InteractionName(code),
	)
	f.append(c.limited(label, rel, details, "element"))
}

func (c *Classifier) input(f *fold, data *model.Object, label string, rel int64) {
	text, _ := model.String(data, "text")
	if strings.TrimSpace(text) == "" {
		return
	}
	f.append(model.SummaryNode{
		Label:          label,
		TimestampStart: rel,
		Details:        model.ObjectOf("element", elementRef(data), "value", text),
	})
}

func (c *Classifier) mutation(f *fold, data *model.Object, rel int64) {
	for _, entry := range model.List(data, "adds") {
		add, ok := entry.(*model.Object)
		if !ok {
			continue
		}
		f.append(c.limited(taxonomy.ElementAdded, rel, pick(add, "parentId", "node"), "parentId"))
	}
	for _, entry := range model.List(data, "removes") {
		rm, ok := entry.(*model.Object)
		if !ok {
			continue
		}
		f.append(c.limited(taxonomy.ElementRemoved, rel, pick(rm, "id", "parentId"), "id", "parentId"))
	}
}

// limited builds a leaf node whose details are payload after size limiting.
func (c *Classifier) limited(label string, rel int64, payload *model.Object, exempt ...string) model.SummaryNode {
	n := model.SummaryNode{Label: label, TimestampStart: rel}
	if payload == nil {
		return n
	}
	r := limiter.Limit(payload, c.opts.Limits.WithExempt(exempt...))
	n.Details = r.Value
	if r.Truncated {
		n.Truncated = true
		n.FullDetails = r.Original
	}
	return n
}

// pick copies the listed keys that are present in o, in the listed order.
func pick(o *model.Object, keys ...string) *model.Object {
	out := model.NewObject()
	for _, k := range keys {
		if v, ok := o.Get(k); ok {
			out.Set(k, v)
		}
	}
	return out
}

func elementRef(data *model.Object) string {
	id, ok := model.Field(data, "id")
	if !ok || id == nil {
		return "Element ID unknown"
	}
	return "Element ID " + model.Display(id)
}
