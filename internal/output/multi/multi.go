package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/output"
)

// Multi fans each report out to several outputs in order. A failing output
// does not stop delivery to the ones after it.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over outputs. Nil entries are skipped.
func New(outputs ...output.Output) *Multi {
	m := &Multi{outputs: make([]output.Output, 0, len(outputs))}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

// Len reports the number of wrapped outputs.
func (m *Multi) Len() int { return len(m.outputs) }

// Write delivers the report to every wrapped output and joins their errors.
func (m *Multi) Write(ctx context.Context, report model.Report) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
