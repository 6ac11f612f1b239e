package block

import (
	"github.com/nesv/siglog"
	"github.com/pkg/errors"
)

// Writer is the "hdfwrite" sink: every sample set on one of its inputs is
// appended to a log file, under the input's name.
type Writer struct {
	w      *siglog.Writer
	inputs *Inputs
}

// NewWriter returns a Writer block with one input per signal name.
func NewWriter(cfg WriterConfig, inputs []string, options ...siglog.Option) (*Writer, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrap(siglog.ErrConfig, "hdfwrite: no inputs")
	}
	in, err := NewInputs(inputs...)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	w, err := siglog.NewWriter(cfg.File, append(options, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "hdfwrite")
	}
	return &Writer{w: w, inputs: in}, nil
}

// Inputs returns the block's inputs, for the host to set samples on.
func (b *Writer) Inputs() *Inputs { return b.inputs }

// Update appends the sample of every input with an update available.
func (b *Writer) Update() error {
	for _, p := range b.inputs.ports {
		if !b.inputs.UpdateAvailable(p.Index) {
			continue
		}
		s := b.inputs.Take(p.Index)
		if err := b.w.Append(s.Time, p.Name, s.Value); err != nil {
			return err
		}
	}
	return nil
}

// Finish closes the log file.
func (b *Writer) Finish() error {
	return b.w.Close()
}
