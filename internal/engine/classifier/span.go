package classifier

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/recap/internal/model"
)

// SpanMode controls when a coalescing span closes.
type SpanMode int

const (
	// PerGesture closes the open span as soon as any other node is appended.
	// The next span event opens a fresh span.
	PerGesture SpanMode = iota
	// Session keeps one span per label for the whole recording: later span
	// events extend it even after other nodes were appended.
	Session
)

func (m SpanMode) String() string {
	if m == Session {
		return "session"
	}
	return "per_gesture"
}

// ParseSpanMode maps "per_gesture" or "session" to a SpanMode.
// The empty string selects PerGesture.
func ParseSpanMode(s string) (SpanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_gesture", "per-gesture", "gesture":
		return PerGesture, nil
	case "session":
		return Session, nil
	default:
		return PerGesture, fmt.Errorf("unknown span mode %q", s)
	}
}

// fold is the accumulator threaded through one Classify call.
type fold struct {
	first  int64
	window string
	nodes  []model.SummaryNode
	mode   SpanMode

	open     int            // index of the open span, -1 when none
	sessions map[string]int // span label -> node index, Session mode only
}

func newFold(first model.RawEvent, mode SpanMode) *fold {
	return &fold{
		first:    first.Timestamp,
		window:   first.WindowID,
		nodes:    []model.SummaryNode{},
		mode:     mode,
		open:     -1,
		sessions: make(map[string]int),
	}
}

func (f *fold) append(n model.SummaryNode) {
	f.nodes = append(f.nodes, n)
}

// span opens or extends the span labeled label at rel.
func (f *fold) span(label string, rel int64) {
	switch f.mode {
	case Session:
		if i, ok := f.sessions[label]; ok {
			f.nodes[i].TimestampEnd = ptr(rel)
			return
		}
		f.append(spanNode(label, rel))
		f.sessions[label] = len(f.nodes) - 1
	default:
		last := len(f.nodes) - 1
		if f.open >= 0 && f.open == last && f.nodes[last].Label == label {
			f.nodes[last].TimestampEnd = ptr(rel)
			return
		}
		f.append(spanNode(label, rel))
		f.open = len(f.nodes) - 1
	}
}

func spanNode(label string, rel int64) model.SummaryNode {
	return model.SummaryNode{Label: label, TimestampStart: rel, TimestampEnd: ptr(rel)}
}

func ptr(v int64) *int64 {
	return &v
}
