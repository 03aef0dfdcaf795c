package encoding

import (
	"encoding/base64"
	"fmt"

	"github.com/bytedance/sonic"
)

var jsonConfig = sonic.ConfigStd

// EncodePayload serializes v as JSON and wraps it in standard base64.
//
// The result only contains characters from the base64 alphabet, so it can be
// embedded in a markup comment regardless of what v contains.
func EncodePayload(v any) (string, error) {
	data, err := jsonConfig.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding: marshal payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePayload reverses EncodePayload into v.
func DecodePayload(encoded string, v any) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := jsonConfig.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}
