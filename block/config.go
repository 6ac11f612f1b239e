package block

import (
	"bytes"
	"strings"

	"github.com/nesv/siglog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WriterConfig configures an "hdfwrite" block.
type WriterConfig struct {
	File      string `yaml:"file"`
	Compress  bool   `yaml:"compress"`
	Complib   string `yaml:"complib"`
	Complevel int    `yaml:"complevel"`
}

// DefaultWriterConfig returns the settings used for keys left out of an
// "hdfwrite" configuration.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		Compress:  true,
		Complib:   "zlib",
		Complevel: 9,
	}
}

func (c WriterConfig) options() ([]siglog.Option, error) {
	if c.File == "" {
		return nil, errors.Wrap(siglog.ErrConfig, "hdfwrite: missing file")
	}
	return []siglog.Option{siglog.Compression(c.Compress, c.Complib, c.Complevel)}, nil
}

// ReaderConfig configures an "hdfread" block. Signals is an optional
// comma-separated list of the signals to read.
type ReaderConfig struct {
	File    string `yaml:"file"`
	Signals string `yaml:"signals"`
	Quiet   bool   `yaml:"quiet"`
}

func (c ReaderConfig) options() ([]siglog.Option, error) {
	if c.File == "" {
		return nil, errors.Wrap(siglog.ErrConfig, "hdfread: missing file")
	}
	options := []siglog.Option{siglog.Quiet(c.Quiet)}
	if names := SplitSignals(c.Signals); names != nil {
		options = append(options, siglog.Signals(names...))
	}
	return options, nil
}

// MultiReaderConfig configures an "hdfread_many" block. Files is a glob
// pattern, and Signals a required comma-separated list of signals.
type MultiReaderConfig struct {
	Files   string `yaml:"files"`
	Signals string `yaml:"signals"`
	Quiet   bool   `yaml:"quiet"`
}

func (c MultiReaderConfig) validate() error {
	if c.Files == "" {
		return errors.Wrap(siglog.ErrConfig, "hdfread_many: missing files")
	}
	if SplitSignals(c.Signals) == nil {
		return errors.Wrap(siglog.ErrConfig, "hdfread_many: missing signals")
	}
	return nil
}

// SplitSignals splits a comma-separated list of signal names, dropping
// surrounding blanks and empty names. It returns nil if no name is left.
func SplitSignals(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// decodeConfig fills out from the host's raw configuration. Keys that do
// not belong to out are rejected.
func decodeConfig(raw map[string]interface{}, out interface{}) error {
	p, err := yaml.Marshal(raw)
	if err != nil {
		return errors.Wrapf(siglog.ErrConfig, "encode config: %v", err)
	}
	return decodeYAML(p, out)
}

func decodeYAML(p []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(p))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(siglog.ErrConfig, "decode config: %v", err)
	}
	return nil
}
