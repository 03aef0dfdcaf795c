package hxboundary

import (
	"context"

	"github.com/a-h/templ"
)

// Renderer is implemented by components that can sit behind a boundary.
//
// Render receives the parameters supplied for the current render pass and
// should be pure - it reads parameters and produces HTML without side
// effects. The same parameters are later serialized into the boundary's
// marker so the interactive runtime can rebuild the component.
//
// Example:
//
//	func (c *Clock) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
//	    return clockTemplate(params["Zone"].(string))
//	}
type Renderer interface {
	Render(ctx context.Context, params Parameters) templ.Component
}

// TypeIdentifier overrides the reflected type identity of a component.
//
// Implement it when the interactive runtime knows the component under a
// different name than its Go type, or when the Go type is unnamed.
type TypeIdentifier interface {
	ComponentType() ComponentType
}

// RenderTarget receives the output a boundary produces during a render pass.
//
// Render must run fragment synchronously: prerendered output has to be
// visible by the time SetParameters returns.
type RenderTarget interface {
	Render(fragment templ.Component) error
}

// Protector produces and verifies the opaque descriptor carried by
// session-hosted markers.
type Protector interface {
	Protect(component ServerComponent) (string, error)
	Unprotect(descriptor string) (ServerComponent, error)
}
