package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/output"
)

// Multi fans summaries out to several outputs, sequentially and in the order
// given. A failing output does not stop delivery to the ones after it.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over the given outputs. Nil entries are skipped.
func New(outputs ...output.Output) *Multi {
	m := &Multi{}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

// Len reports how many outputs are wrapped.
func (m *Multi) Len() int { return len(m.outputs) }

// Write delivers the summary to every wrapped output and joins their errors.
func (m *Multi) Write(ctx context.Context, summary model.Summary) error {
	var errs []error
	for i, o := range m.outputs {
		if err := o.Write(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("multi: output %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for i, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, fmt.Errorf("multi: close output %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
