package hxboundary

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Marker type tags written into start records.
const (
	ServerMarkerType      = "server"
	WebAssemblyMarkerType = "webassembly"
)

// ServerMarker is the record describing a session-hosted boundary.
//
// A start record carries Type, Sequence, Descriptor and Key; PrerenderID is
// set only when the component's output was prerendered between the start
// and end records. An end record has every field nil except PrerenderID.
type ServerMarker struct {
	// Type is ServerMarkerType for start records and nil for end records.
	Type *string `json:"type"`

	// Sequence is the page-scoped order in which the server issued this
	// invocation. It matches the sequence sealed in Descriptor.
	Sequence *int `json:"sequence"`

	// Descriptor is the protected payload the session host verifies before
	// instantiating the component.
	Descriptor *string `json:"descriptor"`

	// Key lets the client tell repeated instances of one declaration apart.
	Key *string `json:"key"`

	// PrerenderID pairs a start record with its end record.
	PrerenderID *string `json:"prerenderId"`
}

// NewServerMarker creates a start record. Prerendered markers receive a
// fresh prerender id.
func NewServerMarker(sequence int, descriptor, key string, prerendered bool) ServerMarker {
	m := ServerMarker{
		Type:       ptr(ServerMarkerType),
		Sequence:   ptr(sequence),
		Descriptor: ptr(descriptor),
		Key:        ptr(key),
	}
	if prerendered {
		m.PrerenderID = ptr(newPrerenderID())
	}
	return m
}

// IsEnd reports whether m is an end record.
func (m ServerMarker) IsEnd() bool {
	return m.Type == nil
}

// Prerendered reports whether m belongs to a prerendered pair.
func (m ServerMarker) Prerendered() bool {
	return m.PrerenderID != nil
}

// EndRecord returns the record closing the prerendered output of m.
func (m ServerMarker) EndRecord() (ServerMarker, error) {
	if m.PrerenderID == nil {
		return ServerMarker{}, ErrNotPrerendered
	}
	return ServerMarker{PrerenderID: ptr(*m.PrerenderID)}, nil
}

// Validate checks the start/end record invariants.
func (m ServerMarker) Validate() error {
	if m.IsEnd() {
		if m.PrerenderID == nil {
			return fmt.Errorf("%w: end record without prerender id", ErrInvalidFormat)
		}
		if m.Sequence != nil || m.Descriptor != nil || m.Key != nil {
			return fmt.Errorf("%w: end record carries start fields", ErrInvalidFormat)
		}
		return nil
	}
	if *m.Type != ServerMarkerType {
		return fmt.Errorf("%w: unexpected marker type %q", ErrInvalidFormat, *m.Type)
	}
	if m.Sequence == nil || m.Descriptor == nil || *m.Descriptor == "" {
		return fmt.Errorf("%w: server start record without sequence or descriptor", ErrInvalidFormat)
	}
	return nil
}

// WebAssemblyMarker is the record describing a locally-hosted boundary.
//
// No prior registration exists for the local runtime, so start records carry
// the component's type identity and its parameters directly. Definitions
// and Values are each base64 encoded JSON.
type WebAssemblyMarker struct {
	Type        *string `json:"type"`
	TypeName    *string `json:"typeName"`
	Assembly    *string `json:"assembly"`
	Definitions *string `json:"definitions"`
	Values      *string `json:"values"`
	Key         *string `json:"key"`
	PrerenderID *string `json:"prerenderId"`
}

// NewWebAssemblyMarker creates a start record. It fails with
// ErrMissingTypeIdentity when ct lacks a name or assembly; such a marker
// could never be resolved and is not emitted.
func NewWebAssemblyMarker(ct ComponentType, definitions, values, key string, prerendered bool) (WebAssemblyMarker, error) {
	if !ct.valid() {
		return WebAssemblyMarker{}, fmt.Errorf("%w: cannot prerender %+v", ErrMissingTypeIdentity, ct)
	}
	m := WebAssemblyMarker{
		Type:        ptr(WebAssemblyMarkerType),
		TypeName:    ptr(ct.Name),
		Assembly:    ptr(ct.Assembly),
		Definitions: ptr(definitions),
		Values:      ptr(values),
		Key:         ptr(key),
	}
	if prerendered {
		m.PrerenderID = ptr(newPrerenderID())
	}
	return m, nil
}

// IsEnd reports whether m is an end record.
func (m WebAssemblyMarker) IsEnd() bool {
	return m.Type == nil
}

// Prerendered reports whether m belongs to a prerendered pair.
func (m WebAssemblyMarker) Prerendered() bool {
	return m.PrerenderID != nil
}

// EndRecord returns the record closing the prerendered output of m.
func (m WebAssemblyMarker) EndRecord() (WebAssemblyMarker, error) {
	if m.PrerenderID == nil {
		return WebAssemblyMarker{}, ErrNotPrerendered
	}
	return WebAssemblyMarker{PrerenderID: ptr(*m.PrerenderID)}, nil
}

// Validate checks the start/end record invariants.
func (m WebAssemblyMarker) Validate() error {
	if m.IsEnd() {
		if m.PrerenderID == nil {
			return fmt.Errorf("%w: end record without prerender id", ErrInvalidFormat)
		}
		if m.TypeName != nil || m.Assembly != nil || m.Definitions != nil || m.Values != nil || m.Key != nil {
			return fmt.Errorf("%w: end record carries start fields", ErrInvalidFormat)
		}
		return nil
	}
	if *m.Type != WebAssemblyMarkerType {
		return fmt.Errorf("%w: unexpected marker type %q", ErrInvalidFormat, *m.Type)
	}
	if m.TypeName == nil || *m.TypeName == "" || m.Assembly == nil || *m.Assembly == "" {
		return fmt.Errorf("%w: webassembly start record", ErrMissingTypeIdentity)
	}
	return nil
}

// Markers holds the start records computed for one boundary. Either field
// may be nil.
type Markers struct {
	Server      *ServerMarker
	WebAssembly *WebAssemblyMarker
}

// Len returns how many markers are present.
func (m Markers) Len() int {
	n := 0
	if m.Server != nil {
		n++
	}
	if m.WebAssembly != nil {
		n++
	}
	return n
}

func newPrerenderID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

func ptr[T any](v T) *T {
	return &v
}
