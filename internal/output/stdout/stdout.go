package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/output"
)

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter redirects output away from os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// Output writes JSON-encoded reports to stdout, one per line unless pretty.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	enc       *json.Encoder
	verbosity output.Verbosity
}

// New creates a stdout Output with verbosity-aware trimming and optional
// pretty-printed JSON.
func New(verbosity output.Verbosity, pretty bool, opts ...Option) *Output {
	o := &Output{w: os.Stdout, verbosity: verbosity}
	for _, opt := range opts {
		opt(o)
	}
	o.enc = json.NewEncoder(o.w)
	o.enc.SetEscapeHTML(false)
	if pretty {
		o.enc.SetIndent("", "  ")
	}
	return o
}

func (o *Output) Write(_ context.Context, report model.Report) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(output.FormatReport(report, o.verbosity)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
