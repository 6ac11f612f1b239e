// Package block adapts siglog writers and readers to a dataflow host that
// drives blocks through named ports.
//
// A host calls a sink block after setting new samples on its inputs, and
// polls a generator block for the time of its next sample before asking it
// to publish that sample on its outputs. Blocks are released with Finish.
package block

import (
	"github.com/nesv/siglog"
	"github.com/pkg/errors"
)

// Block is the interface every block implements.
type Block interface {
	// Update processes new inputs (sinks) or publishes the next sample
	// (generators).
	Update() error

	// Finish releases the block's resources. Calling Finish more than
	// once is a no-op.
	Finish() error
}

// Port describes one named input or output of a block.
type Port struct {
	Name  string
	Index int
}

// Sample is a timestamped value carried by a port.
type Sample struct {
	Time  float64
	Value interface{}
}

// ports builds the port descriptors for names, which must be unique.
func ports(names []string) ([]Port, map[string]int, error) {
	ps := make([]Port, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := index[name]; ok {
			return nil, nil, errors.Wrapf(siglog.ErrConfig, "port %q declared twice", name)
		}
		ps[i] = Port{Name: name, Index: i}
		index[name] = i
	}
	return ps, index, nil
}

// Inputs holds the latest sample set on each input port of a sink block,
// and tracks which of them have not been consumed yet.
//
// An input has an update available when its latest sample carries a
// different time than the last sample consumed from it.
type Inputs struct {
	ports  []Port
	index  map[string]int
	latest []Sample
	set    []bool
	last   []float64 // time of the last consumed sample
	used   []bool
}

// NewInputs returns Inputs with one port per name.
func NewInputs(names ...string) (*Inputs, error) {
	ps, index, err := ports(names)
	if err != nil {
		return nil, err
	}
	return &Inputs{
		ports:  ps,
		index:  index,
		latest: make([]Sample, len(ps)),
		set:    make([]bool, len(ps)),
		last:   make([]float64, len(ps)),
		used:   make([]bool, len(ps)),
	}, nil
}

// Ports returns the input ports, in declaration order.
func (in *Inputs) Ports() []Port {
	return append([]Port{}, in.ports...)
}

// Set stores the latest sample of the named input.
func (in *Inputs) Set(name string, t float64, value interface{}) error {
	i, ok := in.index[name]
	if !ok {
		return errors.Wrapf(siglog.ErrUnknownSignal, "no input %q", name)
	}
	in.latest[i] = Sample{Time: t, Value: value}
	in.set[i] = true
	return nil
}

// UpdateAvailable reports whether input i holds a sample not yet consumed.
func (in *Inputs) UpdateAvailable(i int) bool {
	if !in.set[i] {
		return false
	}
	return !in.used[i] || in.latest[i].Time != in.last[i]
}

// Take consumes the latest sample of input i.
func (in *Inputs) Take(i int) Sample {
	in.last[i], in.used[i] = in.latest[i].Time, true
	return in.latest[i]
}

// Outputs holds the samples published by a generator block, one slot per
// output port.
type Outputs struct {
	ports  []Port
	index  map[string]int
	values []Sample
	fresh  []bool
}

func newOutputs(names []string) (*Outputs, error) {
	ps, index, err := ports(names)
	if err != nil {
		return nil, err
	}
	return &Outputs{
		ports:  ps,
		index:  index,
		values: make([]Sample, len(ps)),
		fresh:  make([]bool, len(ps)),
	}, nil
}

// Ports returns the output ports, in declaration order.
func (o *Outputs) Ports() []Port {
	return append([]Port{}, o.ports...)
}

// Port returns the descriptor of the named output.
func (o *Outputs) Port(name string) (Port, bool) {
	i, ok := o.index[name]
	if !ok {
		return Port{}, false
	}
	return o.ports[i], true
}

func (o *Outputs) publish(i int, s Sample) {
	o.values[i] = s
	o.fresh[i] = true
}

// Take returns the sample last published on the named output. The boolean
// is false if nothing was published there since the previous Take.
func (o *Outputs) Take(name string) (Sample, bool) {
	i, ok := o.index[name]
	if !ok || !o.fresh[i] {
		return Sample{}, false
	}
	o.fresh[i] = false
	return o.values[i], true
}
