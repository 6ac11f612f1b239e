// Package siglog provides a time-ordered log of many named signals.
//
// A Writer appends timestamped values to a log file, one table per signal.
// A signal's table is created on its first Append, and the dtype and shape
// of that first value become the signal's schema: every later value must
// match it. Values are coerced to arrays with the "siglog/array" package.
//
// A Reader replays one log file, yielding the events of all its signals
// (or of a chosen subset) in order of time. A MultiReader plays back every
// file matching a glob pattern, one file after the other. Both implement
// the Source interface, a pull-based iterator:
//
//	r, err := siglog.OpenGlob("runs/*.log", []string{"pose", "camera"})
//	if err != nil {
//		...
//	}
//	defer r.Close()
//
//	for r.HasNext() {
//		ev, err := r.Next()
//		...
//	}
//
// The on-disk layout of a log file is provided by the "siglog/container"
// package. A container file is a log if it holds the group named by
// Namespace.
//
// A Writer only guarantees that events are durable once it is closed. If
// you wish to have events flushed at a regular interval, see the
// documentation for the siglog/logutil.FlushInterval function.
package siglog
