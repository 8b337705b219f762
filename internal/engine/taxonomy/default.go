package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/recap/internal/model"
)

// Default returns the table that ships with recap: pointer movement becomes a
// "Mouse Movement" span, the sub-kinds with dedicated handlers are emitted and
// everything else, scroll included, is dropped.
func Default() *Table {
	t := newTable("default")
	for _, src := range model.Sources() {
		t.Set(src, Rule{Action: Drop})
	}
	t.Set(model.Mutation, Rule{Action: Emit})
	t.Set(model.MouseInteraction, Rule{Action: Emit, Label: MouseInteraction})
	t.Set(model.ViewportResize, Rule{Action: Emit, Label: ViewportResize})
	t.Set(model.Input, Rule{Action: Emit, Label: TextInput})
	t.Set(model.MouseMove, Rule{Action: Span, Label: MouseMovement})
	t.Set(model.TouchMove, Rule{Action: Span, Label: MouseMovement})
	return t
}

// Verbose returns a table that keeps every sub-kind: scroll becomes its own
// span and the remaining sub-kinds produce generic nodes, including
// unrecognized ones.
func Verbose() *Table {
	t := Default()
	t.name = "verbose"
	for _, src := range model.Sources() {
		if t.Rule(src).Action == Drop {
			t.Set(src, Rule{Action: Emit})
		}
	}
	t.Set(model.Scroll, Rule{Action: Span, Label: Scroll})
	t.Set(model.UnknownSource, Rule{Action: Emit, Label: UnknownIncremental})
	return t
}

// Named returns the preset called name. An empty name selects Default.
func Named(name string) (*Table, error) {
	switch name {
	case "", "default":
		return Default(), nil
	case "verbose":
		return Verbose(), nil
	default:
		return nil, fmt.Errorf("taxonomy: unknown preset %q", name)
	}
}

// policyFile is the YAML layout of a policy override file:
//
//	base: verbose
//	sources:
//	  font: drop
//	  scroll: {action: span, label: Scrolling}
//	unknown: drop
//	group_labels: [Element Added, Element Removed]
type policyFile struct {
	Base        string          `yaml:"base"`
	Sources     map[string]Rule `yaml:"sources"`
	Unknown     *Rule           `yaml:"unknown"`
	GroupLabels []string        `yaml:"group_labels"`
}

// Parse builds a table from YAML policy data. Fields left out keep the
// values of the base preset.
func Parse(data []byte) (*Table, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("taxonomy: failed to parse policy: %w", err)
	}

	t, err := Named(f.Base)
	if err != nil {
		return nil, err
	}
	for name, r := range f.Sources {
		src, ok := model.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("taxonomy: unknown source %q", name)
		}
		t.Set(src, r)
	}
	if f.Unknown != nil {
		t.Set(model.UnknownSource, *f.Unknown)
	}
	if f.GroupLabels != nil {
		t.SetGroupLabels(f.GroupLabels)
	}
	t.name = "file"
	return t, nil
}

// LoadFile reads a YAML policy file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Load resolves the table to use: the policy file when path is set, the
// named preset otherwise.
func Load(preset, path string) (*Table, error) {
	if path != "" {
		return LoadFile(path)
	}
	return Named(preset)
}
