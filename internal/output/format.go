package output

import (
	"fmt"

	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/model"
)

// FormatSummary returns a copy of the summary shaped for the given verbosity.
// At Minimal, FullDetails is dropped from every node, children included; the
// Truncated flag is kept so readers still know a payload was cut.
// At Standard/Full the summary is returned unchanged.
func FormatSummary(s model.Summary, verbosity limiter.Verbosity) model.Summary {
	if verbosity != limiter.Minimal {
		return s
	}
	s.Nodes = stripFull(s.Nodes)
	return s
}

func stripFull(nodes []model.SummaryNode) []model.SummaryNode {
	if nodes == nil {
		return nil
	}
	out := make([]model.SummaryNode, len(nodes))
	for i, n := range nodes {
		n.FullDetails = nil
		n.Children = stripFull(n.Children)
		out[i] = n
	}
	return out
}

// FormatTimestamp renders a millisecond offset as MM:SS. Minutes are not
// wrapped at 60.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		return "-" + FormatTimestamp(-ms)
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
