package siglog

import "io"

// Source defines the interface of a type that yields the events of one or
// more log files, in playback order.
type Source interface {
	io.Closer

	// Signals returns the names of the signals the Source yields.
	Signals() []string

	// HasNext reports whether another event can be read with Next.
	HasNext() bool

	// PeekTime returns the time of the next event, without consuming
	// it. The boolean is false if there are no more events.
	PeekTime() (float64, bool)

	// Next returns the next event. Once the Source is exhausted, Next
	// returns io.EOF.
	Next() (Event, error)

	// Err returns the error that stopped the Source early, if any.
	Err() error
}

var (
	_ Source = (*Reader)(nil)
	_ Source = (*MultiReader)(nil)
)
