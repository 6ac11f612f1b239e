// Package logutil provides helpers for running a siglog.Writer.
package logutil

import (
	"time"

	"github.com/nesv/siglog"
	"github.com/pkg/errors"
)

// FlushInterval creates a time.Ticker to call w.Flush() every time.Duration
// d. If w.Flush() returns a non-nil error, the onError function is called,
// with the non-nil error as an argument.
//
// Once w is closed, FlushInterval returns. It is recommended to call this
// function in its own goroutine.
//
//	w, err := siglog.NewWriter("/tmp/run1.log")
//	if err != nil {
//		...
//	}
//
//	go logutil.FlushInterval(w, 10*time.Second, func(err error) {
//		log.Println("error flushing log:", err)
//	})
func FlushInterval(w *siglog.Writer, d time.Duration, onError func(error)) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for range ticker.C {
		err := w.Flush()
		if errors.Cause(err) == siglog.ErrWriterClosed {
			return
		}
		if err != nil && onError != nil {
			onError(err)
		}
	}
}
