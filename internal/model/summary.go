package model

import "time"

// SummaryNode is one entry of the condensed event summary.
type SummaryNode struct {
	Label          string        `json:"label"`
	TimestampStart int64         `json:"timestampStart"`
	TimestampEnd   *int64        `json:"timestampEnd,omitempty"` // spans and groups only
	Details        any           `json:"details,omitempty"`
	Truncated      bool          `json:"truncated,omitempty"`
	FullDetails    any           `json:"fullDetails,omitempty"` // set only when Truncated
	Children       []SummaryNode `json:"children,omitempty"`    // group nodes only
}

// End returns TimestampEnd when present, TimestampStart otherwise.
func (n SummaryNode) End() int64 {
	if n.TimestampEnd != nil {
		return *n.TimestampEnd
	}
	return n.TimestampStart
}

// IsGroup reports whether the node owns children.
func (n SummaryNode) IsGroup() bool {
	return len(n.Children) > 0
}

// Summary is the summarized form of one recording, as delivered to outputs.
type Summary struct {
	ID          string        `json:"id"`
	Source      string        `json:"source,omitempty"`
	EventCount  int           `json:"eventCount"`
	Duration    int64         `json:"duration"` // ms between first and last event
	Nodes       []SummaryNode `json:"nodes"`
	GeneratedAt time.Time     `json:"generatedAt"`
}
