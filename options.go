package siglog

import (
	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

// Option is a functional configuration type shared by Writer, Reader and
// MultiReader. Options that do not apply to a type are ignored by it.
type Option func(*config) error

type config struct {
	filters   container.Filters
	chunkSize int
	signals   []string
	quiet     bool
	log       Logger
	metrics   *Metrics
}

func newConfig(options []Option) (config, error) {
	cfg := config{
		filters:   container.DefaultFilters,
		chunkSize: container.DefaultChunkSize,
		log:       NewLogger(nil, false),
	}
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return cfg, errors.Wrap(err, "applying option")
		}
	}
	return cfg, nil
}

// Compression sets the compression applied to every table a Writer
// creates. lib is one of "zlib", "bzip2", "blosc" or "lzo"; level ranges
// from 0 (no compression) to 9.
func Compression(enabled bool, lib string, level int) Option {
	return func(c *config) error {
		l, err := container.ParseComplib(lib)
		if err != nil {
			return errors.Wrap(ErrConfig, err.Error())
		}
		f := container.Filters{Enabled: enabled, Lib: l, Level: level}
		if err := f.Validate(); err != nil {
			return errors.Wrap(ErrConfig, err.Error())
		}
		c.filters = f
		return nil
	}
}

// ChunkSize sets how much raw data a Writer buffers per signal before
// writing it out.
//
// Setting n too low produces many small, poorly compressed chunks.
func ChunkSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return errors.Wrapf(ErrConfig, "invalid chunk size %d", n)
		}
		c.chunkSize = n
		return nil
	}
}

// Signals restricts a Reader to the named signals, in the given order. The
// order breaks ties between events with equal timestamps.
func Signals(names ...string) Option {
	return func(c *config) error {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if seen[name] {
				return errors.Wrapf(ErrConfig, "signal %q listed twice", name)
			}
			seen[name] = true
		}
		c.signals = append([]string{}, names...)
		return nil
	}
}

// Quiet suppresses progress messages.
func Quiet(quiet bool) Option {
	return func(c *config) error {
		c.quiet = quiet
		return nil
	}
}

// WithLogger sets the Logger that receives progress and diagnostic
// messages.
func WithLogger(l Logger) Option {
	return func(c *config) error {
		if l == nil {
			return errors.Wrap(ErrConfig, "nil logger")
		}
		c.log = l
		return nil
	}
}

// WithMetrics records activity in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}
