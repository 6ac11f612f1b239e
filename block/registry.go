package block

import (
	"sort"
	"sync"

	"github.com/nesv/siglog"
	"github.com/pkg/errors"
)

// Factory creates a block from its raw configuration. inputs names the
// input ports of sink blocks; generators ignore it.
type Factory func(config map[string]interface{}, inputs []string, options ...siglog.Option) (Block, error)

var factoriesMu sync.RWMutex

var factories = map[string]Factory{
	"hdfwrite": func(config map[string]interface{}, inputs []string, options ...siglog.Option) (Block, error) {
		cfg := DefaultWriterConfig()
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, errors.Wrap(err, "hdfwrite")
		}
		b, err := NewWriter(cfg, inputs, options...)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
	"hdfread": func(config map[string]interface{}, _ []string, options ...siglog.Option) (Block, error) {
		var cfg ReaderConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, errors.Wrap(err, "hdfread")
		}
		b, err := NewReader(cfg, options...)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
	"hdfread_many": func(config map[string]interface{}, _ []string, options ...siglog.Option) (Block, error) {
		var cfg MultiReaderConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, errors.Wrap(err, "hdfread_many")
		}
		b, err := NewMultiReader(cfg, options...)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
}

// Register makes a block type available to New. Registering a type twice
// replaces its factory.
func Register(typ string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[typ] = f
}

// Types returns the names of the registered block types, sorted.
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a block of the registered type typ.
func New(typ string, config map[string]interface{}, inputs []string, options ...siglog.Option) (Block, error) {
	factoriesMu.RLock()
	f, ok := factories[typ]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(siglog.ErrConfig, "unknown block type %q", typ)
	}
	return f(config, inputs, options...)
}

// Spec is the YAML description of a block:
//
//	type: hdfread_many
//	config:
//	  files: runs/*.log
//	  signals: pose, camera
type Spec struct {
	Type   string                 `yaml:"type"`
	Inputs []string               `yaml:"inputs"`
	Config map[string]interface{} `yaml:"config"`
}

// ParseSpec decodes a block description from YAML.
func ParseSpec(p []byte) (Spec, error) {
	var s Spec
	if err := decodeYAML(p, &s); err != nil {
		return s, err
	}
	if s.Type == "" {
		return s, errors.Wrap(siglog.ErrConfig, "block spec without a type")
	}
	return s, nil
}

// FromYAML creates the block described by the YAML document p.
func FromYAML(p []byte, options ...siglog.Option) (Block, error) {
	s, err := ParseSpec(p)
	if err != nil {
		return nil, err
	}
	return New(s.Type, s.Config, s.Inputs, options...)
}
