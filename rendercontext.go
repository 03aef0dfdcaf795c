package hxboundary

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/pthm/hxboundary"

// InvocationSequence correlates every session-hosted boundary rendered for
// one page. Its id is sealed into each descriptor, and Next hands out the
// per-page sequence numbers written into server markers.
type InvocationSequence struct {
	id   string
	next atomic.Int64
}

func newInvocationSequence() *InvocationSequence {
	id := uuid.New()
	return &InvocationSequence{id: hex.EncodeToString(id[:])}
}

// ID returns the page invocation id.
func (s *InvocationSequence) ID() string {
	return s.id
}

// Next returns the next sequence number, starting at zero.
func (s *InvocationSequence) Next() int {
	return int(s.next.Add(1) - 1)
}

// Option configures a RenderContext.
type Option func(*RenderContext)

// WithProtector sets the protector used for session-hosted descriptors.
func WithProtector(p Protector) Option {
	return func(rc *RenderContext) {
		rc.protector = p
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rc *RenderContext) {
		rc.logger = l
	}
}

// WithMetrics records marker emission on m.
func WithMetrics(m *Metrics) Option {
	return func(rc *RenderContext) {
		rc.metrics = m
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(rc *RenderContext) {
		rc.tracer = t
	}
}

// RenderContext carries the per-request state boundaries need while a page
// renders: the request, the descriptor protector and the page invocation.
//
// A RenderContext belongs to a single page render. It may be shared by
// goroutines rendering parts of that page; the invocation is created once.
type RenderContext struct {
	request   *http.Request
	protector Protector
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	invocationOnce sync.Once
	invocation     *InvocationSequence
}

// NewRenderContext creates the render context for r.
func NewRenderContext(r *http.Request, opts ...Option) *RenderContext {
	rc := &RenderContext{request: r}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Request returns the request being rendered. May be nil outside HTTP.
func (rc *RenderContext) Request() *http.Request {
	return rc.request
}

// Protector returns the configured protector, or nil.
func (rc *RenderContext) Protector() Protector {
	return rc.protector
}

// Metrics returns the configured metrics, or nil.
func (rc *RenderContext) Metrics() *Metrics {
	return rc.metrics
}

// Logger returns the configured logger.
func (rc *RenderContext) Logger() *slog.Logger {
	if rc.logger != nil {
		return rc.logger
	}
	return slog.Default()
}

// Tracer returns the configured tracer, or the global one.
func (rc *RenderContext) Tracer() trace.Tracer {
	if rc.tracer != nil {
		return rc.tracer
	}
	return otel.Tracer(tracerName)
}

// Invocation returns the page invocation, creating it on first use.
func (rc *RenderContext) Invocation() *InvocationSequence {
	rc.invocationOnce.Do(func() {
		rc.invocation = newInvocationSequence()
	})
	return rc.invocation
}

type renderContextKey struct{}

// WithRenderContext stores rc in ctx.
func WithRenderContext(ctx context.Context, rc *RenderContext) context.Context {
	return context.WithValue(ctx, renderContextKey{}, rc)
}

// FromContext returns the render context stored in ctx.
func FromContext(ctx context.Context) (*RenderContext, bool) {
	rc, ok := ctx.Value(renderContextKey{}).(*RenderContext)
	return rc, ok && rc != nil
}

// Middleware installs a fresh RenderContext into every request's context.
//
//	mux := chi.NewRouter()
//	mux.Use(hxboundary.Middleware(hxboundary.WithProtector(protector)))
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := NewRenderContext(r, opts...)
			next.ServeHTTP(w, r.WithContext(WithRenderContext(r.Context(), rc)))
		})
	}
}
