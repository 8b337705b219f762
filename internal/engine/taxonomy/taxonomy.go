// Package taxonomy holds the summary label vocabulary and the policy table
// that decides what each incremental sub-kind turns into.
package taxonomy

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/recap/internal/model"
)

// Summary node labels.
const (
	PageNavigation     = "Page Navigation"
	DomContentLoaded   = "DOM Content Loaded"
	PageLoad           = "Page Load"
	FullSnapshot       = "Full Snapshot"
	CustomEvent        = "Custom Event"
	PluginEvent        = "Plugin Event"
	MouseInteraction   = "Mouse Interaction"
	TextInput          = "Text Input"
	ElementAdded       = "Element Added"
	ElementRemoved     = "Element Removed"
	ViewportResize     = "Viewport Resize"
	MouseMovement      = "Mouse Movement"
	Scroll             = "Scroll"
	WindowChanged      = "Window Changed"
	UnknownEvent       = "Unknown Event"
	UnknownIncremental = "Unknown Incremental Event"
	Group              = "DOM Mutations and Events"
)

// Action is what the classifier does with an incremental sub-kind.
type Action int

const (
	// Drop produces no node.
	Drop Action = iota
	// Emit produces one node per event. Sub-kinds with a dedicated handler
	// (mutation, mouse interaction, input, viewport resize) use it; the rest get
	// a generic node carrying the size-limited payload under the rule's label.
	Emit
	// Span coalesces consecutive events into one node with a time range.
	Span
)

func (a Action) String() string {
	switch a {
	case Emit:
		return "emit"
	case Span:
		return "span"
	default:
		return "drop"
	}
}

// ParseAction maps "drop", "emit" or "span" to an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop":
		return Drop, nil
	case "emit":
		return Emit, nil
	case "span":
		return Span, nil
	default:
		return Drop, fmt.Errorf("unknown action %q", s)
	}
}

// UnmarshalYAML accepts the action name as a scalar.
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseAction(value.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Rule is the policy for one sub-kind.
type Rule struct {
	Action Action `yaml:"action"`
	Label  string `yaml:"label"`
}

// UnmarshalYAML accepts either a bare action ("drop") or a mapping
// ({action: span, label: Scroll}).
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return r.Action.UnmarshalYAML(value)
	}
	type plain Rule
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// Table maps incremental sub-kinds to rules and names the labels that the
// grouping pass collapses.
type Table struct {
	name      string
	rules     map[model.Source]Rule
	unknown   Rule
	groupable []string
}

func newTable(name string) *Table {
	return &Table{
		name:      name,
		rules:     make(map[model.Source]Rule, len(model.Sources())),
		unknown:   Rule{Action: Drop, Label: UnknownIncremental},
		groupable: []string{ElementAdded, ElementRemoved, PluginEvent, CustomEvent},
	}
}

// Name returns the preset the table was built from.
func (t *Table) Name() string {
	return t.name
}

// Rule returns the rule for src. Unrecognized sub-kinds get the unknown rule.
func (t *Table) Rule(src model.Source) Rule {
	if r, ok := t.rules[src]; ok {
		return r
	}
	return t.unknown
}

// Set replaces the rule for src. An empty label defaults to the sub-kind's
// title, or "Unknown Incremental Event" for UnknownSource.
func (t *Table) Set(src model.Source, r Rule) {
	if !src.Known() {
		if r.Label == "" {
			r.Label = UnknownIncremental
		}
		t.unknown = r
		return
	}
	if r.Label == "" {
		r.Label = src.Title()
	}
	t.rules[src] = r
}

// Groupable reports whether nodes with label are collapsed by the grouping pass.
func (t *Table) Groupable(label string) bool {
	for _, l := range t.groupable {
		if l == label {
			return true
		}
	}
	return false
}

// GroupLabels returns the groupable labels.
func (t *Table) GroupLabels() []string {
	return append([]string(nil), t.groupable...)
}

// SetGroupLabels replaces the groupable label set.
func (t *Table) SetGroupLabels(labels []string) {
	t.groupable = append([]string(nil), labels...)
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := &Table{
		name:      t.name,
		rules:     make(map[model.Source]Rule, len(t.rules)),
		unknown:   t.unknown,
		groupable: append([]string(nil), t.groupable...),
	}
	for k, v := range t.rules {
		c.rules[k] = v
	}
	return c
}
