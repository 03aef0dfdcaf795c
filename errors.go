package hxboundary

import "errors"

// ErrConfiguration is the parent of every error that must abort the page
// render: the boundary cannot be described by a marker, and emitting a
// partial one would change behavior on the client.
var ErrConfiguration = errors.New("hxboundary: invalid boundary configuration")

// Sentinel errors for boundary operations.
var (
	ErrUnsupportedRenderMode     = configError("hxboundary: unsupported render mode")
	ErrCallableParameter         = configError("hxboundary: callable parameter cannot cross a render mode boundary")
	ErrTemplatedContentParameter = configError("hxboundary: templated content cannot cross a render mode boundary")
	ErrMissingTypeIdentity       = configError("hxboundary: component type has no name")
	ErrNoRenderContext           = configError("hxboundary: render context not available")
	ErrNoProtector               = configError("hxboundary: no descriptor protector configured")
	ErrInvalidUTF8Parameter      = configError("hxboundary: parameter string is not valid UTF-8")
	ErrNotPrerendered            = errors.New("hxboundary: no end record for a non-prerendered marker")
	ErrNotAttached               = errors.New("hxboundary: boundary has no render target")

	ErrInvalidFormat     = errors.New("hxboundary: invalid marker or descriptor format")
	ErrSignatureInvalid  = errors.New("hxboundary: descriptor signature verification failed")
	ErrDecryptFailed     = errors.New("hxboundary: descriptor decryption failed")
	ErrDescriptorExpired = errors.New("hxboundary: descriptor expired")
	ErrInvalidDescriptor = errors.New("hxboundary: descriptor rejected")
)

// IsConfigurationError reports whether err must abort the current render.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsInvalidDescriptor reports whether err rejects a descriptor presented by
// a client, whatever the reason.
func IsInvalidDescriptor(err error) bool {
	return errors.Is(err, ErrInvalidDescriptor) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrDescriptorExpired)
}

type kindError struct {
	msg    string
	parent error
}

func configError(msg string) error {
	return &kindError{msg: msg, parent: ErrConfiguration}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }
