package astiremux

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus metrics of the remuxer
// A nil *Metrics is valid and records nothing
type Metrics struct {
	// Packet metrics
	PacketsDiscarded prometheus.Counter
	PacketsForced    prometheus.Counter
	PacketsRead      prometheus.Counter
	PacketsWritten   prometheus.Counter
	LastDts          prometheus.Gauge

	// Session metrics
	Errors          *prometheus.CounterVec
	RemuxersRunning prometheus.Gauge
	SessionRestarts prometheus.Counter
}

// NewMetrics creates the metrics and registers them with the registerer
func NewMetrics(r prometheus.Registerer) *Metrics {
	f := promauto.With(r)
	return &Metrics{
		PacketsDiscarded: f.NewCounter(prometheus.CounterOpts{
			Name: "astiremux_packets_discarded_total",
			Help: "Total number of packets discarded because they don't belong to the selected video stream",
		}),
		PacketsForced: f.NewCounter(prometheus.CounterOpts{
			Name: "astiremux_packets_forced_total",
			Help: "Total number of packets whose dts has been forced forward",
		}),
		PacketsRead: f.NewCounter(prometheus.CounterOpts{
			Name: "astiremux_packets_read_total",
			Help: "Total number of packets read from the input",
		}),
		PacketsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "astiremux_packets_written_total",
			Help: "Total number of packets written to the output",
		}),
		LastDts: f.NewGauge(prometheus.GaugeOpts{
			Name: "astiremux_last_dts",
			Help: "Dts of the last packet written to the output, expressed in the output time base",
		}),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astiremux_errors_total",
				Help: "Total number of errors",
			},
			[]string{"kind"},
		),
		RemuxersRunning: f.NewGauge(prometheus.GaugeOpts{
			Name: "astiremux_remuxers_running",
			Help: "Number of currently running remuxers",
		}),
		SessionRestarts: f.NewCounter(prometheus.CounterOpts{
			Name: "astiremux_session_restarts_total",
			Help: "Total number of session restarts",
		}),
	}
}

var errorKinds = map[error]string{
	ErrAllocFailed:         "alloc_failed",
	ErrCodecCopyFailed:     "codec_copy_failed",
	ErrFormatNotFound:      "format_not_found",
	ErrHeaderWriteFailed:   "header_write_failed",
	ErrInvalidArgument:     "invalid_argument",
	ErrNoVideoStream:       "no_video_stream",
	ErrOpenFailed:          "open_failed",
	ErrReadFailed:          "read_failed",
	ErrStreamIndexNotFound: "stream_index_not_found",
	ErrTrailerWriteFailed:  "trailer_write_failed",
	ErrWriteFailed:         "write_failed",
}

// ErrorKind returns the label of the error's kind
func ErrorKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if k, ok := errorKinds[e.Kind]; ok {
			return k
		}
	}
	return "unknown"
}

func (m *Metrics) discarded() {
	if m == nil {
		return
	}
	m.PacketsDiscarded.Inc()
}

func (m *Metrics) error(err error) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(ErrorKind(err)).Inc()
}

func (m *Metrics) read() {
	if m == nil {
		return
	}
	m.PacketsRead.Inc()
}

func (m *Metrics) restarted() {
	if m == nil {
		return
	}
	m.SessionRestarts.Inc()
}

func (m *Metrics) running(delta float64) {
	if m == nil {
		return
	}
	m.RemuxersRunning.Add(delta)
}

func (m *Metrics) written(res RestampResult, dts Timestamp) {
	if m == nil {
		return
	}
	m.PacketsWritten.Inc()
	if res.Forced {
		m.PacketsForced.Inc()
	}
	if v, ok := dts.Value(); ok {
		m.LastDts.Set(float64(v))
	}
}
