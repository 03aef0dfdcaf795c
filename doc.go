// Package hxboundary lets a server-rendered page hand interactive regions
// over to a client runtime.
//
// A boundary marks a point in server-rendered output where a component must
// later be resumed interactively, either inside a persistent server session
// or inside a runtime executed by the browser. The boundary writes markers
// into the page as HTML comments; the client finds them, resolves each one
// to a position in the document and attaches the component there.
//
// # Core Concepts
//
// Components implement Renderer and receive their parameters as a
// Parameters map:
//
//	type Clock struct{}
//
//	func (c *Clock) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
//	    return clockTemplate(params["Zone"].(string))
//	}
//
// A RenderMode selects the runtime and whether the component's current
// output is prerendered between its markers:
//
//   - InteractiveServer: session-hosted, the marker carries a protected
//     descriptor the server verifies when the session starts
//   - InteractiveWebAssembly: locally hosted, the marker carries the type
//     identity and base64 encoded parameters
//   - InteractiveAuto: both markers, the client picks at connect time
//
// # Markers
//
// Every marker is framed as
//
//	<!--Marker:{"type":"server","sequence":0,"descriptor":"...","key":"...","prerenderId":"..."}-->
//
// Prerendered boundaries get an end record after their output carrying only
// the prerenderId of the start record. Parameter payloads are base64 encoded
// and the JSON escapes <, > and &, so user content can never close the
// comment early.
//
// # Stable Keys
//
// StableKey correlates a boundary's markers across renders. It combines a
// SHA-1 digest of the component's type name, the declaration sequence and an
// optional list key, and never depends on parameter values.
//
// # Security Model
//
// Session-hosted descriptors are produced by a Protector. The default
// DataProtector msgpack encodes the invocation and either signs it
// (HMAC-authenticated, visible but tamper-proof) or encrypts it (AES-GCM,
// opaque, via WithEncryption). Descriptors carry the page invocation id and
// an expiry, so they cannot be replayed on another page or much later.
//
// # Rendering
//
// Install a RenderContext per request with Middleware and embed boundaries
// in templates with Island:
//
//	mux.Use(hxboundary.Middleware(hxboundary.WithProtector(protector)))
//
//	@hxboundary.Island(hxboundary.Declaration{
//	    Component: clock,
//	    Mode:      hxboundary.InteractiveServer(true),
//	    Sequence:  3,
//	    Key:       "row-5",
//	})
//
// Parameters that are functions cannot cross a boundary. Passing one aborts
// the render with ErrTemplatedContentParameter or ErrCallableParameter.
//
// The client side of the protocol (marker discovery and resolution) lives in
// package client.
package hxboundary
