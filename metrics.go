package siglog

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the activity of writers and readers. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	eventsWritten prometheus.Counter
	eventsRead    prometheus.Counter
	filesCreated  prometheus.Counter
	filesOpened   prometheus.Counter
	signals       prometheus.Counter
	errors        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. If reg is
// nil, the collectors are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		eventsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siglog_events_written_total",
			Help: "Total events appended to log files",
		}),
		eventsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siglog_events_read_total",
			Help: "Total events yielded by readers",
		}),
		filesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siglog_files_created_total",
			Help: "Total log files created by writers",
		}),
		filesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siglog_files_opened_total",
			Help: "Total log files opened for reading",
		}),
		signals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siglog_signals_created_total",
			Help: "Total signal tables created by writers",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siglog_errors_total",
			Help: "Total failed operations, by kind of error",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.eventsWritten, m.eventsRead, m.filesCreated, m.filesOpened, m.signals, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}
	return m, nil
}

func (m *Metrics) eventWritten() {
	if m != nil {
		m.eventsWritten.Inc()
	}
}

func (m *Metrics) eventRead() {
	if m != nil {
		m.eventsRead.Inc()
	}
}

func (m *Metrics) fileCreated() {
	if m != nil {
		m.filesCreated.Inc()
	}
}

func (m *Metrics) fileOpened() {
	if m != nil {
		m.filesOpened.Inc()
	}
}

func (m *Metrics) signalCreated() {
	if m != nil {
		m.signals.Inc()
	}
}

// failed counts err under the name of its kind, and returns it unchanged.
func (m *Metrics) failed(err error) error {
	if m != nil && err != nil {
		m.errors.WithLabelValues(errorKind(err)).Inc()
	}
	return err
}

func errorKind(err error) string {
	switch errors.Cause(err) {
	case ErrConfig:
		return "config"
	case ErrNoFilesMatched:
		return "no_files_matched"
	case ErrNotALog:
		return "not_a_log"
	case ErrUnknownSignal:
		return "unknown_signal"
	case ErrMissingSignal:
		return "missing_signal"
	case ErrInvalidValue:
		return "invalid_value"
	case ErrInvalidSignalName:
		return "invalid_signal_name"
	case ErrDtypeMismatch:
		return "dtype_mismatch"
	case ErrWriterClosed, ErrReaderClosed:
		return "closed"
	case ErrCorruptLog:
		return "corrupt_log"
	}
	return "io"
}
