// Package grouper collapses runs of atomic detail nodes into group nodes.
package grouper

import (
	"github.com/crimson-sun/recap/internal/engine/taxonomy"
	"github.com/crimson-sun/recap/internal/model"
)

// Config controls grouping behavior.
type Config struct {
	Table      *taxonomy.Table // decides which labels are groupable; nil selects taxonomy.Default()
	GroupLabel string          // label of the produced group nodes (default "DOM Mutations and Events")
}

// Grouper merges every maximal run of consecutive groupable nodes into one
// group node holding the run as children.
type Grouper struct {
	cfg Config
}

// New creates a Grouper with the given config.
func New(cfg Config) *Grouper {
	if cfg.Table == nil {
		cfg.Table = taxonomy.Default()
	}
	if cfg.GroupLabel == "" {
		cfg.GroupLabel = taxonomy.Group
	}
	return &Grouper{cfg: cfg}
}

// Group returns nodes with each run of groupable nodes replaced by a group.
// Runs of one still form a group. Other nodes pass through unchanged and in
// order. Existing children are never inspected.
func (g *Grouper) Group(nodes []model.SummaryNode) []model.SummaryNode {
	out := make([]model.SummaryNode, 0, len(nodes))

	for i := 0; i < len(nodes); {
		if !g.cfg.Table.Groupable(nodes[i].Label) {
			out = append(out, nodes[i])
			i++
			continue
		}

		j := i
		for j < len(nodes) && g.cfg.Table.Groupable(nodes[j].Label) {
			j++
		}
		out = append(out, g.group(nodes[i:j]))
		i = j
	}
	return out
}

func (g *Grouper) group(run []model.SummaryNode) model.SummaryNode {
	children := make([]model.SummaryNode, len(run))
	copy(children, run)
	end := run[len(run)-1].End()
	return model.SummaryNode{
		Label:          g.cfg.GroupLabel,
		TimestampStart: run[0].TimestampStart,
		TimestampEnd:   &end,
		Details:        model.ObjectOf("count", len(run)),
		Children:       children,
	}
}
