package text

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/model"
)

func end(v int64) *int64 { return &v }

func sampleNodes() []model.SummaryNode {
	return []model.SummaryNode{
		{Label: "Page Navigation", TimestampStart: 0, Details: model.ObjectOf("href", "https://shop.example.com/?a=1&b=2")},
		{Label: "Mouse Movement", TimestampStart: 1000, TimestampEnd: end(4500)},
		{
			Label:          "DOM Mutations and Events",
			TimestampStart: 65000,
			TimestampEnd:   end(66000),
			Details:        model.ObjectOf("count", 2),
			Children: []model.SummaryNode{
				{Label: "Element Added", TimestampStart: 65000, Details: model.ObjectOf("parentId", json.Number("12"), "node", model.ObjectOf("id", json.Number("5"), "tagName", "div"))},
				{
					Label:          "Custom Event",
					TimestampStart: 66000,
					Details:        model.ObjectOf("tag", "cart", "payload", "abc..."),
					Truncated:      true,
					FullDetails:    model.ObjectOf("tag", "cart", "payload", "abcdefgh"),
				},
			},
		},
	}
}

func TestRenderTimeline(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleNodes()); err != nil {
		t.Fatalf("Render error: %v", err)
	}

	want := strings.Join([]string{
		"Timestamp: 00:00",
		"Page Navigation",
		"Href: https://shop.example.com/?a=1&b=2",
		"",
		"Timestamp: 00:01 - 00:04",
		"Mouse Movement",
		"",
		"Timestamp: 01:05 - 01:06",
		"DOM Mutations and Events: 2 events",
		"  Timestamp: 01:05",
		"  Element Added",
		`  ParentId: 12`,
		`  Node: {"id":5,"tagName":"div"}`,
		"",
		"  Timestamp: 01:06",
		"  Custom Event (truncated)",
		"  Tag: cart",
		"  Payload: abc...",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected timeline:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestOutputExpanded(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, limiter.Standard, WithExpanded())
	s := model.Summary{Nodes: sampleNodes()[2].Children[1:]}
	if err := out.Write(context.Background(), s); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "Payload: abcdefgh") {
		t.Errorf("expanded output should show full details:\n%s", got)
	}
	if strings.Contains(got, "(truncated)") {
		t.Errorf("expanded output should not mark the node truncated:\n%s", got)
	}
}

func TestOutputExpandedMinimalFallsBack(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, limiter.Minimal, WithExpanded())
	s := model.Summary{Nodes: sampleNodes()[2].Children[1:]}
	out.Write(context.Background(), s)

	got := buf.String()
	if !strings.Contains(got, "Payload: abc...") || !strings.Contains(got, "(truncated)") {
		t.Errorf("minimal verbosity has no full details to expand:\n%s", got)
	}
}

func TestOutputHeader(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, limiter.Standard, WithHeader())
	s := model.Summary{ID: "abc", Source: "session.json", EventCount: 21, Duration: 65000, Nodes: sampleNodes()[:1]}
	out.Write(context.Background(), s)

	if !strings.HasPrefix(buf.String(), "Recording: session.json (21 events, 01:05)\n\nTimestamp: 00:00\n") {
		t.Fatalf("unexpected header:\n%s", buf.String())
	}
}

func TestDetailsVariants(t *testing.T) {
	nodes := []model.SummaryNode{
		{Label: "Plain Map", Details: map[string]any{"zeta": 1, "alpha": []any{"x", nil}}},
		{Label: "Scalar", Details: "just text"},
	}
	var buf bytes.Buffer
	Render(&buf, nodes)

	want := strings.Join([]string{
		"Timestamp: 00:00",
		"Plain Map",
		`Alpha: ["x",null]`,
		"Zeta: 1",
		"",
		"Timestamp: 00:00",
		"Scalar",
		"Details: just text",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestOutputWriteError(t *testing.T) {
	out := NewWriter(failingWriter{}, limiter.Standard)
	err := out.Write(context.Background(), model.Summary{Nodes: sampleNodes()})
	if err == nil || !strings.Contains(err.Error(), "pipe closed") {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}
