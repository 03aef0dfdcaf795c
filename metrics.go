package hxboundary

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts boundary activity. A nil *Metrics records nothing.
type Metrics struct {
	markers     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		markers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxboundary",
			Name:      "markers_emitted_total",
			Help:      "Start markers written into rendered pages.",
		}, []string{"type", "prerendered"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxboundary",
			Name:      "boundary_failures_total",
			Help:      "Boundaries that aborted a render.",
		}, []string{"reason"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxboundary",
			Name:      "resolutions_total",
			Help:      "Client marker resolutions by path and outcome.",
		}, []string{"path", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.markers, m.failures, m.resolutions)
	}
	return m
}

// Collectors returns the underlying collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.markers, m.failures, m.resolutions}
}

// ObserveResolution records one client-side resolution.
func (m *Metrics) ObserveResolution(path string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resolutions.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) markerEmitted(kind string, prerendered bool) {
	if m == nil {
		return
	}
	m.markers.WithLabelValues(kind, strconv.FormatBool(prerendered)).Inc()
}

func (m *Metrics) boundaryFailed(err error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTemplatedContentParameter):
		return "templated_content"
	case errors.Is(err, ErrCallableParameter):
		return "callable"
	case errors.Is(err, ErrInvalidUTF8Parameter):
		return "invalid_utf8"
	case errors.Is(err, ErrMissingTypeIdentity):
		return "missing_identity"
	case errors.Is(err, ErrUnsupportedRenderMode):
		return "render_mode"
	case errors.Is(err, ErrNoRenderContext), errors.Is(err, ErrNoProtector):
		return "no_context"
	default:
		return "other"
	}
}
