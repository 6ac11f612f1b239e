package block

import (
	"io"

	"github.com/nesv/siglog"
	"github.com/pkg/errors"
)

// Generator is a source block replaying a siglog.Source: the "hdfread"
// and "hdfread_many" blocks. It has one output per signal of the source.
type Generator struct {
	src      siglog.Source
	outputs  *Outputs
	finished bool
}

// NewReader returns the "hdfread" block, playing back a single log file.
func NewReader(cfg ReaderConfig, options ...siglog.Option) (*Generator, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	r, err := siglog.Open(cfg.File, append(options, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "hdfread")
	}
	return newGenerator(r)
}

// NewMultiReader returns the "hdfread_many" block, playing back every log
// file matching a glob pattern.
func NewMultiReader(cfg MultiReaderConfig, options ...siglog.Option) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	options = append(options, siglog.Quiet(cfg.Quiet))
	m, err := siglog.OpenGlob(cfg.Files, SplitSignals(cfg.Signals), options...)
	if err != nil {
		return nil, errors.Wrap(err, "hdfread_many")
	}
	return newGenerator(m)
}

func newGenerator(src siglog.Source) (*Generator, error) {
	out, err := newOutputs(src.Signals())
	if err != nil {
		src.Close()
		return nil, err
	}
	return &Generator{src: src, outputs: out}, nil
}

// Outputs returns the block's outputs, for the host to take samples from.
func (g *Generator) Outputs() *Outputs { return g.outputs }

// NextDataStatus returns whether the block has another sample, and if so,
// its time. Once the source is exhausted, the block finishes itself.
func (g *Generator) NextDataStatus() (bool, float64) {
	if g.finished {
		return false, 0
	}
	t, ok := g.src.PeekTime()
	if !ok && g.src.Err() == nil {
		g.Finish()
	}
	return ok, t
}

// Update publishes the next sample on the output named after its signal.
func (g *Generator) Update() error {
	if g.finished {
		return io.EOF
	}
	ev, err := g.src.Next()
	if err != nil {
		return err
	}
	p, ok := g.outputs.Port(ev.Signal)
	if !ok {
		return errors.Wrapf(siglog.ErrUnknownSignal, "no output for signal %q", ev.Signal)
	}
	g.outputs.publish(p.Index, Sample{Time: ev.Time, Value: ev.Value})
	return nil
}

// Err returns the error that stopped the source early, if any.
func (g *Generator) Err() error {
	return g.src.Err()
}

// Finish closes the source.
func (g *Generator) Finish() error {
	if g.finished {
		return nil
	}
	g.finished = true
	return g.src.Close()
}
