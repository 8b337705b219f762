package recap

import "github.com/crimson-sun/recap/internal/model"

// Rule describes what the summarizer does with one incremental sub-kind.
type Rule struct {
	Source string // sub-kind name, e.g. "mouse_move"
	Action string // "drop", "emit" or "span"
	Label  string // node label when not dropped
}

// Policy returns the active rule for every known incremental sub-kind, in
// source code order. This is read-only; use WithPolicyFile to change it.
func (s *Summarizer) Policy() []Rule {
	srcs := model.Sources()
	rules := make([]Rule, len(srcs))
	for i, src := range srcs {
		r := s.table.Rule(src)
		rules[i] = Rule{
			Source: src.String(),
			Action: r.Action.String(),
			Label:  r.Label,
		}
	}
	return rules
}

// PolicyName returns the preset the policy table was built from.
func (s *Summarizer) PolicyName() string {
	return s.table.Name()
}

// GroupLabels returns the labels whose consecutive runs are collapsed into
// one group node.
func (s *Summarizer) GroupLabels() []string {
	return s.table.GroupLabels()
}
