// Package hxboundaryecho provides Echo framework integration for hxboundary.
//
// Mount installs a render context on every request and serves the
// descriptor verification endpoint:
//
//	e := echo.New()
//	reg := hxboundaryecho.Mount(e, hxboundaryecho.WithKey(key))
//	reg.Add(clock)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxboundaryecho.MountGroup(g)
//	reg.Add(clock)
package hxboundaryecho

import (
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/hxboundary"
)

// DefaultPath is where the verification endpoint is mounted.
const DefaultPath = "/_boundary/verify"

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key       []byte
	path      string
	encrypt   bool
	logger    *slog.Logger
	metrics   *hxboundary.Metrics
	protector hxboundary.Protector
}

// WithKey sets the descriptor protection key.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPath sets the URL path of the verification endpoint.
// Defaults to DefaultPath.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithEncryption encrypts descriptors instead of signing them.
func WithEncryption() Option {
	return func(o *options) {
		o.encrypt = true
	}
}

// WithProtector uses p instead of a DataProtector built from the key.
func WithProtector(p hxboundary.Protector) Option {
	return func(o *options) {
		o.protector = p
	}
}

// WithLogger sets the logger for render contexts and the registry.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records boundary activity on m.
func WithMetrics(m *hxboundary.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Mount installs the render context middleware on an Echo instance and
// mounts the verification endpoint.
//
//	e := echo.New()
//	reg := hxboundaryecho.Mount(e)
//	reg.Add(clock)
//
//	// With options:
//	reg := hxboundaryecho.Mount(e, hxboundaryecho.WithKey(key))
func Mount(e *echo.Echo, opts ...Option) *hxboundary.Registry {
	m := newMount(opts)
	e.Use(m.middleware)
	e.POST(m.path, echo.WrapHandler(m.registry.Handler()))
	return m.registry
}

// MountGroup installs the middleware on an Echo group and mounts the
// verification endpoint inside it, so it shares the group's middleware
// (auth, logging, etc.).
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxboundaryecho.MountGroup(g)
//	reg.Add(clock)
func MountGroup(g *echo.Group, opts ...Option) *hxboundary.Registry {
	m := newMount(opts)
	g.Use(m.middleware)
	g.POST(m.path, echo.WrapHandler(m.registry.Handler()))
	return m.registry
}

type mount struct {
	registry   *hxboundary.Registry
	path       string
	middleware echo.MiddlewareFunc
}

func newMount(opts []Option) *mount {
	o := &options{path: DefaultPath}
	for _, opt := range opts {
		opt(o)
	}

	protector := o.protector
	if protector == nil {
		key := o.key
		if key == nil {
			key = make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				panic(fmt.Sprintf("hxboundaryecho: failed to generate random key: %v", err))
			}
		}
		var popts []hxboundary.ProtectorOption
		if o.encrypt {
			popts = append(popts, hxboundary.WithEncryption())
		}
		p, err := hxboundary.NewDataProtector(key, popts...)
		if err != nil {
			panic(fmt.Sprintf("hxboundaryecho: %v", err))
		}
		protector = p
	}

	reg := hxboundary.NewRegistry(protector)
	rcOpts := []hxboundary.Option{hxboundary.WithProtector(protector), hxboundary.WithMetrics(o.metrics)}
	if o.logger != nil {
		reg.SetLogger(o.logger)
		rcOpts = append(rcOpts, hxboundary.WithLogger(o.logger))
	}

	return &mount{
		registry:   reg,
		path:       o.path,
		middleware: echo.WrapMiddleware(hxboundary.Middleware(rcOpts...)),
	}
}

// Render writes a templ component to the Echo response. A boundary that
// fails aborts the whole page.
//
//	func handler(c echo.Context) error {
//	    return hxboundaryecho.Render(c, pageTemplate())
//	}
func Render(c echo.Context, component templ.Component) error {
	return hxboundary.Render(c.Response(), c.Request(), component)
}
