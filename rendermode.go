package hxboundary

import "fmt"

// Host identifies which interactive runtime takes over a boundary.
type Host int

const (
	// HostServer resumes the component inside a persistent server session.
	HostServer Host = iota + 1

	// HostWebAssembly resumes the component inside a runtime downloaded and
	// executed by the browser.
	HostWebAssembly

	// HostAuto emits markers for both runtimes and lets the client pick one
	// when it connects.
	HostAuto
)

// String returns the host name used in logs and error messages.
func (h Host) String() string {
	switch h {
	case HostServer:
		return "server"
	case HostWebAssembly:
		return "webassembly"
	case HostAuto:
		return "auto"
	default:
		return fmt.Sprintf("Host(%d)", int(h))
	}
}

// RenderMode describes how a boundary becomes interactive.
//
// Construct one with InteractiveServer, InteractiveWebAssembly or
// InteractiveAuto. The zero value is not a valid mode and NewBoundary
// rejects it.
type RenderMode struct {
	Host      Host
	Prerender bool
}

// InteractiveServer hosts the component over a persistent session.
func InteractiveServer(prerender bool) RenderMode {
	return RenderMode{Host: HostServer, Prerender: prerender}
}

// InteractiveWebAssembly hosts the component in the browser-local runtime.
func InteractiveWebAssembly(prerender bool) RenderMode {
	return RenderMode{Host: HostWebAssembly, Prerender: prerender}
}

// InteractiveAuto lets the client choose between server and webassembly.
func InteractiveAuto(prerender bool) RenderMode {
	return RenderMode{Host: HostAuto, Prerender: prerender}
}

// String returns e.g. "server" or "auto+prerender".
func (m RenderMode) String() string {
	if m.Prerender {
		return m.Host.String() + "+prerender"
	}
	return m.Host.String()
}

func (m RenderMode) validate() error {
	switch m.Host {
	case HostServer, HostWebAssembly, HostAuto:
		return nil
	default:
		return fmt.Errorf("%w: server-side rendering does not support %s", ErrUnsupportedRenderMode, m.Host)
	}
}

// server reports whether a session-hosted marker must be emitted.
func (m RenderMode) server() bool {
	return m.Host == HostServer || m.Host == HostAuto
}

// webAssembly reports whether a locally-hosted marker must be emitted.
func (m RenderMode) webAssembly() bool {
	return m.Host == HostWebAssembly || m.Host == HostAuto
}
