package classifier

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/engine/taxonomy"
	"github.com/crimson-sun/recap/internal/model"
)

// --- event builders ---

func ev(ts int64, kind model.EventKind, kv ...any) model.RawEvent {
	return model.RawEvent{WindowID: "w1", Kind: kind, Timestamp: ts, Data: model.ObjectOf(kv...)}
}

func inc(ts int64, src model.Source, kv ...any) model.RawEvent {
	return ev(ts, model.IncrementalSnapshot, append([]any{"source", num(int64(src))}, kv...)...)
}

func num(n int64) json.Number {
	return json.Number(strconv.FormatInt(n, 10))
}

func click(ts int64, code int64, id int64) model.RawEvent {
	return inc(ts, model.MouseInteraction, "type", num(code), "id", num(id))
}

func labels(nodes []model.SummaryNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(data)
}

func defaultClassifier() *Classifier {
	return New(DefaultOptions())
}

// --- core properties ---

func TestClassifyEmpty(t *testing.T) {
	nodes := defaultClassifier().Classify(nil)
	if nodes == nil || len(nodes) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", nodes)
	}
}

func TestRelativeTimestamps(t *testing.T) {
	events := []model.RawEvent{
		ev(1_000_000, model.DomContentLoaded),
		ev(1_000_250, model.Load),
		ev(1_001_000, model.FullSnapshot),
	}
	nodes := defaultClassifier().Classify(events)

	want := []struct {
		label string
		ts    int64
	}{
		{taxonomy.DomContentLoaded, 0},
		{taxonomy.PageLoad, 250},
		{taxonomy.FullSnapshot, 1000},
	}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %v", len(want), labels(nodes))
	}
	for i, w := range want {
		if nodes[i].Label != w.label || nodes[i].TimestampStart != w.ts {
			t.Errorf("node[%d] = %s@%d, want %s@%d", i, nodes[i].Label, nodes[i].TimestampStart, w.label, w.ts)
		}
		if nodes[i].Details != nil || nodes[i].TimestampEnd != nil {
			t.Errorf("node[%d] should be bare", i)
		}
	}
}

func TestMouseUpDroppedClickKept(t *testing.T) {
	events := []model.RawEvent{
		click(0, model.MouseUp, 7),
		click(10, model.MouseUp, 7),
		click(20, model.MouseUp, 7),
		click(30, model.MouseUp, 7),
		click(40, model.MouseUp, 7),
		click(50, model.Click, 7),
	}
	nodes := defaultClassifier().Classify(events)

	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %v", labels(nodes))
	}
	n := nodes[0]
	if n.Label != taxonomy.MouseInteraction || n.TimestampStart != 50 {
		t.Fatalf("unexpected node %s@%d", n.Label, n.TimestampStart)
	}
	if got := mustJSON(t, n.Details); got != `{"element":"Element ID 7","interactionType":"Click"}` {
		t.Fatalf("unexpected details %s", got)
	}
}

func TestIgnoredInteractions(t *testing.T) {
	for _, code := range []int64{model.MouseUp, model.MouseDown, model.Focus, model.Blur} {
		if nodes := defaultClassifier().Classify([]model.RawEvent{click(0, code, 1)}); len(nodes) != 0 {
			t.Errorf("code %d should be dropped, got %v", code, labels(nodes))
		}
	}
	for _, code := range []int64{model.Click, model.ContextMenu, model.DblClick, model.TouchStart, model.TouchEnd, 8} {
		if nodes := defaultClassifier().Classify([]model.RawEvent{click(0, code, 1)}); len(nodes) != 1 {
			t.Errorf("code %d should produce a node, got %v", code, labels(nodes))
		}
	}
}

func TestMouseInteractionMissingFields(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{inc(0, model.MouseInteraction)})
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %v", labels(nodes))
	}
	if got := mustJSON(t, nodes[0].Details); got != `{"element":"Element ID unknown","interactionType":"Unknown"}` {
		t.Fatalf("unexpected details %s", got)
	}
}

func TestWhitespaceInputDropped(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{
		inc(0, model.Input, "id", json.Number("3"), "text", "   "),
		inc(5, model.Input, "id", json.Number("3")),
	})
	if len(nodes) != 0 {
		t.Fatalf("expected no nodes, got %v", labels(nodes))
	}
}

func TestTextInputNeverTruncated(t *testing.T) {
	long := strings.Repeat("k", 500)
	nodes := defaultClassifier().Classify([]model.RawEvent{
		inc(0, model.Input, "id", json.Number("3"), "text", long),
	})
	if len(nodes) != 1 || nodes[0].Label != taxonomy.TextInput {
		t.Fatalf("unexpected nodes %v", labels(nodes))
	}
	n := nodes[0]
	if n.Truncated || n.FullDetails != nil {
		t.Fatal("text input must not be truncated")
	}
	d := n.Details.(*model.Object)
	if v, _ := d.Get("value"); v != long {
		t.Fatal("value should be copied in full")
	}
}

func TestMovementSpanDoesNotSwallowClick(t *testing.T) {
	events := []model.RawEvent{
		ev(1000, model.DomContentLoaded),
		inc(1100, model.MouseMove),
		inc(1250, model.MouseMove),
		click(1300, model.Click, 4),
	}
	nodes := defaultClassifier().Classify(events)

	if got := labels(nodes); strings.Join(got, ",") != "DOM Content Loaded,Mouse Movement,Mouse Interaction" {
		t.Fatalf("unexpected labels %v", got)
	}
	span := nodes[1]
	if span.TimestampStart != 100 || span.TimestampEnd == nil || *span.TimestampEnd != 250 {
		t.Fatalf("unexpected span %d-%v", span.TimestampStart, span.TimestampEnd)
	}
	if nodes[2].TimestampStart != 300 {
		t.Fatalf("click at %d, want 300", nodes[2].TimestampStart)
	}
}

func TestSpanOpensWithEqualBounds(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{inc(0, model.TouchMove)})
	if len(nodes) != 1 || nodes[0].Label != taxonomy.MouseMovement {
		t.Fatalf("unexpected nodes %v", labels(nodes))
	}
	if nodes[0].TimestampEnd == nil || *nodes[0].TimestampEnd != 0 {
		t.Fatal("new span should end where it starts")
	}
}

func TestPerGestureSpanReopens(t *testing.T) {
	events := []model.RawEvent{
		inc(0, model.MouseMove),
		inc(50, model.TouchMove),
		click(100, model.Click, 1),
		inc(200, model.MouseMove),
		inc(300, model.MouseMove),
	}
	nodes := defaultClassifier().Classify(events)

	if got := strings.Join(labels(nodes), ","); got != "Mouse Movement,Mouse Interaction,Mouse Movement" {
		t.Fatalf("unexpected labels %s", got)
	}
	if *nodes[0].TimestampEnd != 50 {
		t.Fatalf("first span end = %d, want 50", *nodes[0].TimestampEnd)
	}
	if nodes[2].TimestampStart != 200 || *nodes[2].TimestampEnd != 300 {
		t.Fatalf("second span = %d-%d, want 200-300", nodes[2].TimestampStart, *nodes[2].TimestampEnd)
	}
}

func TestDroppedEventKeepsSpanOpen(t *testing.T) {
	events := []model.RawEvent{
		inc(0, model.MouseMove),
		click(10, model.MouseDown, 1),
		inc(20, model.Scroll),
		inc(30, model.MouseMove),
	}
	nodes := defaultClassifier().Classify(events)
	if len(nodes) != 1 || *nodes[0].TimestampEnd != 30 {
		t.Fatalf("expected one span ending at 30, got %v", labels(nodes))
	}
}

func TestSessionSpanKeepsExtending(t *testing.T) {
	opts := DefaultOptions()
	opts.SpanMode = Session
	events := []model.RawEvent{
		inc(0, model.MouseMove),
		click(100, model.Click, 1),
		inc(200, model.MouseMove),
		inc(300, model.MouseMove),
	}
	nodes := New(opts).Classify(events)

	if got := strings.Join(labels(nodes), ","); got != "Mouse Movement,Mouse Interaction" {
		t.Fatalf("unexpected labels %s", got)
	}
	if nodes[0].TimestampStart != 0 || *nodes[0].TimestampEnd != 300 {
		t.Fatalf("session span = %d-%d, want 0-300", nodes[0].TimestampStart, *nodes[0].TimestampEnd)
	}
	if nodes[1].TimestampEnd != nil {
		t.Fatal("click node must not be touched by the span")
	}
}

func TestPageNavigation(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{
		ev(0, model.Meta, "href", "https://example.com/a", "width", json.Number("800")),
		ev(10, model.Meta, "width", json.Number("800")),
		ev(20, model.Meta, "href", ""),
	})
	if len(nodes) != 1 || nodes[0].Label != taxonomy.PageNavigation {
		t.Fatalf("expected exactly one navigation node, got %v", labels(nodes))
	}
	if got := mustJSON(t, nodes[0].Details); got != `{"url":"https://example.com/a"}` {
		t.Fatalf("unexpected details %s", got)
	}
}

func TestCustomEventTruncation(t *testing.T) {
	payload := []any{"tag", "checkout", "payload", strings.Repeat("p", 300), "plugin", strings.Repeat("x", 400)}
	nodes := defaultClassifier().Classify([]model.RawEvent{ev(0, model.Custom, payload...)})

	n := nodes[0]
	if n.Label != taxonomy.CustomEvent || !n.Truncated {
		t.Fatalf("expected truncated custom event, got %+v", n)
	}
	d := n.Details.(*model.Object)
	if v, _ := d.Get("plugin"); len(v.(string)) != 400 {
		t.Fatal("plugin key is exempt")
	}
	if v, _ := d.Get("payload"); v != strings.Repeat("p", 200)+"..." {
		t.Fatalf("payload should be limited, got %q", v)
	}
	if n.FullDetails == nil {
		t.Fatal("fullDetails must be set on truncation")
	}
}

func TestPluginNeverMarkedTruncated(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{
		ev(0, model.Plugin, "plugin", "rrweb/console@1", "payload", model.ObjectOf("a", 1, "b", 2, "c", 3, "d", 4)),
	})
	n := nodes[0]
	if n.Label != taxonomy.PluginEvent || n.Truncated || n.FullDetails != nil {
		t.Fatalf("unexpected plugin node %+v", n)
	}
}

func TestMutationFlattens(t *testing.T) {
	data := []any{
		"adds", []any{
			model.ObjectOf("parentId", json.Number("1"), "nextId", nil, "node", model.ObjectOf("type", json.Number("2"), "tagName", "div")),
			"not an object",
			model.ObjectOf("parentId", json.Number("1")),
		},
		"removes", []any{model.ObjectOf("parentId", json.Number("1"), "id", json.Number("9"))},
	}
	nodes := defaultClassifier().Classify([]model.RawEvent{inc(0, model.Mutation, data...)})

	if got := strings.Join(labels(nodes), ","); got != "Element Added,Element Added,Element Removed" {
		t.Fatalf("unexpected labels %s", got)
	}
	if got := mustJSON(t, nodes[0].Details); got != `{"parentId":1,"node":{"type":2,"tagName":"div"}}` {
		t.Fatalf("unexpected add details %s", got)
	}
	if got := mustJSON(t, nodes[1].Details); got != `{"parentId":1}` {
		t.Fatalf("missing keys should stay missing, got %s", got)
	}
	if got := mustJSON(t, nodes[2].Details); got != `{"id":9,"parentId":1}` {
		t.Fatalf("unexpected remove details %s", got)
	}
}

func TestViewportResize(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{
		inc(0, model.ViewportResize, "width", json.Number("1280"), "height", json.Number("720")),
	})
	if len(nodes) != 1 || nodes[0].Label != taxonomy.ViewportResize || nodes[0].Truncated {
		t.Fatalf("unexpected nodes %+v", nodes)
	}
	if got := mustJSON(t, nodes[0].Details); got != `{"source":4,"width":1280,"height":720}` {
		t.Fatalf("unexpected details %s", got)
	}
}

func TestUnknownKind(t *testing.T) {
	nodes := defaultClassifier().Classify([]model.RawEvent{ev(0, model.EventKind(42))})
	if len(nodes) != 1 || nodes[0].Label != taxonomy.UnknownEvent {
		t.Fatalf("unexpected nodes %v", labels(nodes))
	}
}

// --- policy table ---

func TestDefaultTableDropsMiscSources(t *testing.T) {
	var events []model.RawEvent
	for _, src := range []model.Source{model.Scroll, model.MediaInteraction, model.StyleSheetRule, model.CanvasMutation, model.Font, model.Drag, model.StyleDeclaration, model.AdoptedStyleSheet, model.Source(11)} {
		events = append(events, inc(0, src))
	}
	if nodes := defaultClassifier().Classify(events); len(nodes) != 0 {
		t.Fatalf("expected no nodes, got %v", labels(nodes))
	}
}

func TestVerboseTable(t *testing.T) {
	opts := DefaultOptions()
	opts.Table = taxonomy.Verbose()
	events := []model.RawEvent{
		inc(0, model.Scroll, "id", json.Number("1"), "x", json.Number("0"), "y", json.Number("10")),
		inc(40, model.Scroll, "id", json.Number("1"), "x", json.Number("0"), "y", json.Number("90")),
		inc(50, model.Font, "family", "Inter"),
		inc(60, model.Source(14)),
	}
	nodes := New(opts).Classify(events)

	if got := strings.Join(labels(nodes), ","); got != "Scroll,Font,Unknown Incremental Event" {
		t.Fatalf("unexpected labels %s", got)
	}
	if *nodes[0].TimestampEnd != 40 {
		t.Fatalf("scroll span end = %d, want 40", *nodes[0].TimestampEnd)
	}
	if got := mustJSON(t, nodes[1].Details); got != `{"source":10,"family":"Inter"}` {
		t.Fatalf("unexpected generic details %s", got)
	}
}

func TestSpanLabelsDoNotMix(t *testing.T) {
	opts := DefaultOptions()
	opts.Table = taxonomy.Verbose()
	nodes := New(opts).Classify([]model.RawEvent{
		inc(0, model.MouseMove),
		inc(10, model.Scroll),
		inc(20, model.MouseMove),
	})
	if got := strings.Join(labels(nodes), ","); got != "Mouse Movement,Scroll,Mouse Movement" {
		t.Fatalf("unexpected labels %s", got)
	}
}

func TestDroppedBespokeSource(t *testing.T) {
	tab := taxonomy.Default()
	tab.Set(model.MouseInteraction, taxonomy.Rule{Action: taxonomy.Drop})
	nodes := New(Options{Table: tab, Limits: limiter.DefaultPolicy()}).Classify([]model.RawEvent{click(0, model.Click, 1)})
	if len(nodes) != 0 {
		t.Fatalf("expected no nodes, got %v", labels(nodes))
	}
}

// --- window tracking ---

func TestTrackWindows(t *testing.T) {
	opts := DefaultOptions()
	opts.TrackWindows = true
	second := ev(100, model.FullSnapshot)
	second.WindowID = "w2"
	nodes := New(opts).Classify([]model.RawEvent{ev(0, model.FullSnapshot), second})

	if got := strings.Join(labels(nodes), ","); got != "Full Snapshot,Window Changed,Full Snapshot" {
		t.Fatalf("unexpected labels %s", got)
	}
	if got := mustJSON(t, nodes[1].Details); got != `{"windowId":"w2"}` {
		t.Fatalf("unexpected details %s", got)
	}

	// off by default
	if nodes := defaultClassifier().Classify([]model.RawEvent{ev(0, model.FullSnapshot), second}); len(nodes) != 2 {
		t.Fatalf("window tracking should be off by default, got %v", labels(nodes))
	}
}

func TestParseSpanMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SpanMode
		wantErr bool
	}{
		{"", PerGesture, false},
		{"per_gesture", PerGesture, false},
		{"SESSION", Session, false},
		{"forever", PerGesture, true},
	}
	for _, tt := range tests {
		got, err := ParseSpanMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSpanMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}
