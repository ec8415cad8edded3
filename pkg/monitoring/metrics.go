package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eye"

// CaptureMetrics counts what goes through camera sessions.
// A nil *CaptureMetrics is valid and does nothing.
type CaptureMetrics struct {
	frames   prometheus.Counter
	bytes    prometheus.Counter
	pull     prometheus.Histogram
	errors   *prometheus.CounterVec
	sessions prometheus.Gauge
}

// NewCaptureMetrics registers capture metrics within reg,
// or the default Prometheus registry if reg is nil.
func NewCaptureMetrics(reg prometheus.Registerer) *CaptureMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &CaptureMetrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "capture", Name: "frames_total",
			Help: "Number of frames copied out of the native library.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "capture", Name: "frame_bytes_total",
			Help: "Number of raw frame bytes copied out of the native library.",
		}),
		pull: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "capture", Name: "pull_seconds",
			Help:    "Time spent in one blocking native frame call.",
			Buckets: []float64{.001, .005, .01, .02, .033, .05, .1, .25, .5, 1},
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "native", Name: "errors_total",
			Help: "Number of native calls that returned a non-zero status.",
		}, []string{"call"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "capture", Name: "sessions",
			Help: "Number of live native capture sessions.",
		}),
	}
	reg.MustRegister(m.frames, m.bytes, m.pull, m.errors, m.sessions)
	return m
}

func (m *CaptureMetrics) Frame(size int, took time.Duration) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.bytes.Add(float64(size))
	m.pull.Observe(took.Seconds())
}

func (m *CaptureMetrics) NativeError(call string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(call).Inc()
}

func (m *CaptureMetrics) SessionOpened() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *CaptureMetrics) SessionClosed() {
	if m != nil {
		m.sessions.Dec()
	}
}
