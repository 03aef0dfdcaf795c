package hxboundary

import (
	"crypto/sha1"
	"encoding"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// typeNameDigests caches the digest of each fully qualified component type
// name for the lifetime of the process.
var typeNameDigests sync.Map // map[string]string

// StableKey derives the identifier that correlates a boundary's start and
// end markers and its later lookup on the client.
//
// The key is "<digest>:<sequence>:<key>" where digest is the uppercase hex
// SHA-1 of the component's fully qualified name, sequence is the boundary's
// declaration position and key is the invariant text of the explicit list
// key (empty when key is nil). Parameter values never contribute.
func StableKey(ct ComponentType, sequence int, key any) (string, error) {
	digest, err := typeNameDigest(ct)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(digest) + 24)
	sb.WriteString(digest)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(sequence))
	sb.WriteByte(':')
	sb.WriteString(formatKey(key))
	return sb.String(), nil
}

func typeNameDigest(ct ComponentType) (string, error) {
	if ct.Name == "" {
		return "", fmt.Errorf("%w: cannot derive a stable key", ErrMissingTypeIdentity)
	}
	if cached, ok := typeNameDigests.Load(ct.Name); ok {
		return cached.(string), nil
	}

	sum := sha1.Sum([]byte(ct.Name))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))

	// Racing writers compute the same value.
	typeNameDigests.Store(ct.Name, digest)
	return digest, nil
}

// formatKey renders an explicit key independently of locale.
func formatKey(key any) string {
	switch k := key.(type) {
	case nil:
		return ""
	case string:
		return k
	case int:
		return strconv.Itoa(k)
	case int8:
		return strconv.FormatInt(int64(k), 10)
	case int16:
		return strconv.FormatInt(int64(k), 10)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint:
		return strconv.FormatUint(uint64(k), 10)
	case uint8:
		return strconv.FormatUint(uint64(k), 10)
	case uint16:
		return strconv.FormatUint(uint64(k), 10)
	case uint32:
		return strconv.FormatUint(uint64(k), 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case float32:
		return strconv.FormatFloat(float64(k), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	case fmt.Stringer:
		return k.String()
	case encoding.TextMarshaler:
		text, err := k.MarshalText()
		if err != nil {
			return ""
		}
		return string(text)
	default:
		return fmt.Sprint(k)
	}
}
