package hxboundary

import (
	"fmt"
	"time"
)

// DefaultDescriptorMaxAge bounds how long a session-hosted descriptor can be
// presented back to the server after the page was rendered.
const DefaultDescriptorMaxAge = 5 * time.Minute

// ServerComponent is the invocation sealed inside a session-hosted marker's
// descriptor. The session host unprotects it to learn which component to
// instantiate with which parameters.
type ServerComponent struct {
	Sequence             int                  `msgpack:"seq"`
	TypeName             string               `msgpack:"type"`
	AssemblyName         string               `msgpack:"asm"`
	ParameterDefinitions []ComponentParameter `msgpack:"defs"`
	ParameterValues      []any                `msgpack:"vals"`
	Key                  string               `msgpack:"key"`
	Prerendered          bool                 `msgpack:"pre"`
	InvocationID         string               `msgpack:"inv"`
	ExpiresAt            time.Time            `msgpack:"exp"`
}

// ComponentType returns the sealed component identity.
func (c ServerComponent) ComponentType() ComponentType {
	return ComponentType{Name: c.TypeName, Assembly: c.AssemblyName}
}

// Parameters rebuilds the parameter map from definitions and values.
func (c ServerComponent) Parameters() (Parameters, error) {
	if len(c.ParameterDefinitions) != len(c.ParameterValues) {
		return nil, fmt.Errorf("%w: %d definitions for %d values", ErrInvalidFormat, len(c.ParameterDefinitions), len(c.ParameterValues))
	}
	params := make(Parameters, len(c.ParameterDefinitions))
	for i, def := range c.ParameterDefinitions {
		params[def.Name] = c.ParameterValues[i]
	}
	return params, nil
}

// ProtectorOption configures a DataProtector.
type ProtectorOption func(*DataProtector)

// WithEncryption makes descriptors fully opaque (AES-GCM) instead of signed.
func WithEncryption() ProtectorOption {
	return func(p *DataProtector) {
		p.sensitive = true
	}
}

// WithMaxAge overrides DefaultDescriptorMaxAge.
func WithMaxAge(d time.Duration) ProtectorOption {
	return func(p *DataProtector) {
		p.maxAge = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProtectorOption {
	return func(p *DataProtector) {
		p.now = now
	}
}

// DataProtector is the default Protector. Descriptors are msgpack encoded,
// then either signed (HMAC-SHA256) or encrypted (AES-256-GCM), and expire
// after a fixed age.
type DataProtector struct {
	enc       *Encoder
	sensitive bool
	maxAge    time.Duration
	now       func() time.Time
}

// NewDataProtector creates a protector keyed with key. The key should be at
// least 32 bytes of random data shared by every server that may receive the
// descriptor.
func NewDataProtector(key []byte, opts ...ProtectorOption) (*DataProtector, error) {
	enc, err := NewEncoder(key)
	if err != nil {
		return nil, fmt.Errorf("hxboundary: create protector: %w", err)
	}
	p := &DataProtector{
		enc:    enc,
		maxAge: DefaultDescriptorMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Protect seals c. A zero ExpiresAt is set to now plus the max age.
func (p *DataProtector) Protect(c ServerComponent) (string, error) {
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = p.now().Add(p.maxAge).UTC()
	}
	return p.enc.Encode(c, p.sensitive)
}

// Unprotect verifies descriptor and returns the sealed invocation.
func (p *DataProtector) Unprotect(descriptor string) (ServerComponent, error) {
	var c ServerComponent
	if err := p.enc.Decode(descriptor, p.sensitive, &c); err != nil {
		return ServerComponent{}, wrapEncodingError(err)
	}
	if !p.now().Before(c.ExpiresAt) {
		return ServerComponent{}, fmt.Errorf("%w: sequence %d expired at %s", ErrDescriptorExpired, c.Sequence, c.ExpiresAt.Format(time.RFC3339))
	}
	return c, nil
}

// SerializeServer builds the session-hosted start record for ct. It takes
// the next page-scoped sequence number from rc and seals the invocation
// with rc's protector.
func SerializeServer(rc *RenderContext, ct ComponentType, params Parameters, key string, prerendered bool) (ServerMarker, error) {
	if rc == nil {
		return ServerMarker{}, ErrNoRenderContext
	}
	if !ct.valid() {
		return ServerMarker{}, fmt.Errorf("%w: cannot serialize %+v", ErrMissingTypeIdentity, ct)
	}
	protector := rc.Protector()
	if protector == nil {
		return ServerMarker{}, ErrNoProtector
	}

	invocation := rc.Invocation()
	sequence := invocation.Next()
	definitions, values := ParameterDefinitions(params)

	descriptor, err := protector.Protect(ServerComponent{
		Sequence:             sequence,
		TypeName:             ct.Name,
		AssemblyName:         ct.Assembly,
		ParameterDefinitions: definitions,
		ParameterValues:      values,
		Key:                  key,
		Prerendered:          prerendered,
		InvocationID:         invocation.ID(),
	})
	if err != nil {
		return ServerMarker{}, fmt.Errorf("hxboundary: protect %s: %w", ct.Name, err)
	}

	return NewServerMarker(sequence, descriptor, key, prerendered), nil
}
