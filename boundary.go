package hxboundary

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Boundary stands in for an interactive component while a page is rendered
// on the server.
//
// The surrounding renderer drives it in three steps:
//
//	b, err := hxboundary.NewBoundary(clock, hxboundary.InteractiveServer(true))
//	b.Attach(target)                      // where output goes
//	err = b.SetParameters(params)         // snapshot, validate, prerender
//	markers, err := b.Markers(rc, 3, "row-5")
//
// When the mode prerenders, SetParameters renders the component's current
// output into the target before returning. Markers describes how the client
// resumes the component: a session-hosted marker, a locally-hosted marker,
// or both for HostAuto.
//
// A Boundary is rendered by one render pass at a time and is not safe for
// concurrent use.
type Boundary struct {
	component Renderer
	mode      RenderMode
	target    RenderTarget
	params    Parameters

	componentType *ComponentType
	markerKey     *string
}

// NewBoundary creates the boundary for component. An unsupported render
// mode fails immediately.
func NewBoundary(component Renderer, mode RenderMode) (*Boundary, error) {
	if component == nil {
		return nil, fmt.Errorf("%w: nil component", ErrMissingTypeIdentity)
	}
	if err := mode.validate(); err != nil {
		return nil, err
	}
	return &Boundary{component: component, mode: mode}, nil
}

// Mode returns the boundary's render mode.
func (b *Boundary) Mode() RenderMode {
	return b.mode
}

// Parameters returns the most recent parameter snapshot.
func (b *Boundary) Parameters() Parameters {
	return b.params
}

// Attach records where the boundary's output is emitted.
func (b *Boundary) Attach(target RenderTarget) {
	b.target = target
}

// SetParameters stores a snapshot of params and validates it. Callables
// fail with ErrTemplatedContentParameter or ErrCallableParameter; the page
// render must abort. When prerendering, the component's output is rendered
// into the attached target synchronously.
func (b *Boundary) SetParameters(params Parameters) error {
	b.params = params.Snapshot()

	if err := validateParameters(b.displayName(), b.mode, b.params); err != nil {
		return err
	}

	if !b.mode.Prerender {
		return nil
	}
	if b.target == nil {
		return ErrNotAttached
	}
	return b.target.Render(templ.ComponentFunc(b.prerender))
}

func (b *Boundary) prerender(ctx context.Context, w io.Writer) error {
	return b.component.Render(ctx, b.params).Render(ctx, w)
}

// Markers computes the start records for this boundary.
//
// The stable key is derived from the component type, sequence and key on
// the first call and reused afterwards: neither should change for a given
// instance. Session-hosted markers take the next sequence number from the
// page invocation in rc; rc may be nil for HostWebAssembly.
func (b *Boundary) Markers(rc *RenderContext, sequence int, key any) (Markers, error) {
	ct, err := b.typeIdentity()
	if err != nil {
		return Markers{}, err
	}
	if b.markerKey == nil {
		k, err := StableKey(ct, sequence, key)
		if err != nil {
			return Markers{}, err
		}
		b.markerKey = &k
	}

	params := b.params
	if params == nil {
		params = Parameters{}
	}

	var markers Markers
	if b.mode.server() {
		m, err := SerializeServer(rc, ct, params, *b.markerKey, b.mode.Prerender)
		if err != nil {
			return Markers{}, err
		}
		markers.Server = &m
	}
	if b.mode.webAssembly() {
		m, err := SerializeWebAssembly(ct, params, *b.markerKey, b.mode.Prerender)
		if err != nil {
			return Markers{}, err
		}
		markers.WebAssembly = &m
	}
	return markers, nil
}

// Key returns the cached stable key, or "" before Markers has run.
func (b *Boundary) Key() string {
	if b.markerKey == nil {
		return ""
	}
	return *b.markerKey
}

func (b *Boundary) typeIdentity() (ComponentType, error) {
	if b.componentType != nil {
		return *b.componentType, nil
	}
	ct, err := TypeOf(b.component)
	if err != nil {
		return ComponentType{}, err
	}
	b.componentType = &ct
	return ct, nil
}

func (b *Boundary) displayName() string {
	if ct, err := b.typeIdentity(); err == nil {
		return ct.Name
	}
	return fmt.Sprintf("%T", b.component)
}
