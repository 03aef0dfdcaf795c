package hxboundary

import (
	"errors"
	"fmt"

	"github.com/pthm/hxboundary/lib/encoding"
)

// Encoder is an alias for encoding.Encoder for convenience.
type Encoder = encoding.Encoder

// NewEncoder creates a new encoder with the given key.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}

// wrapEncodingError wraps encoding package errors with hxboundary sentinel errors.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, encoding.ErrInvalidFormat):
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, encoding.ErrDecryptFailed):
		return ErrDecryptFailed
	}
	return err
}
