package hxboundary

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pthm/hxboundary/lib/encoding"
)

// Markers are framed as "<!--Marker:{json}-->".
const (
	MarkerPrefix = "Marker:"
	commentOpen  = "<!--"
	commentClose = "-->"
)

// markerJSON escapes <, > and & inside strings, so no value can spell out
// the comment terminator.
var markerJSON = sonic.ConfigStd

type record interface {
	Validate() error
}

// EncodeMarker serializes a ServerMarker or WebAssemblyMarker (start or end
// record) to its compact JSON form.
func EncodeMarker(m record) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := markerJSON.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("hxboundary: marshal marker: %w", err)
	}
	if bytes.Contains(data, []byte(commentClose)) {
		return nil, fmt.Errorf("%w: marker would terminate its comment", ErrInvalidFormat)
	}
	return data, nil
}

// Frame wraps an encoded marker in its comment.
func Frame(encoded []byte) string {
	var sb strings.Builder
	sb.Grow(len(commentOpen) + len(MarkerPrefix) + len(encoded) + len(commentClose))
	sb.WriteString(commentOpen)
	sb.WriteString(MarkerPrefix)
	sb.Write(encoded)
	sb.WriteString(commentClose)
	return sb.String()
}

// WriteMarker encodes and frames m into w.
func WriteMarker(w io.Writer, m record) error {
	encoded, err := EncodeMarker(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, Frame(encoded))
	return err
}

// WriteServerEnd writes the end record paired with start.
func WriteServerEnd(w io.Writer, start ServerMarker) error {
	end, err := start.EndRecord()
	if err != nil {
		return err
	}
	return WriteMarker(w, end)
}

// WriteWebAssemblyEnd writes the end record paired with start.
func WriteWebAssemblyEnd(w io.Writer, start WebAssemblyMarker) error {
	end, err := start.EndRecord()
	if err != nil {
		return err
	}
	return WriteMarker(w, end)
}

// SerializeWebAssembly builds the locally-hosted start record for ct.
// Definitions and values are serialized and base64 encoded independently,
// so parameter content cannot break the surrounding comment.
func SerializeWebAssembly(ct ComponentType, params Parameters, key string, prerendered bool) (WebAssemblyMarker, error) {
	if !ct.valid() {
		return WebAssemblyMarker{}, fmt.Errorf("%w: cannot serialize %+v", ErrMissingTypeIdentity, ct)
	}
	definitions, values := ParameterDefinitions(params)

	encodedDefinitions, err := encoding.EncodePayload(definitions)
	if err != nil {
		return WebAssemblyMarker{}, err
	}
	encodedValues, err := encoding.EncodePayload(values)
	if err != nil {
		return WebAssemblyMarker{}, err
	}

	return NewWebAssemblyMarker(ct, encodedDefinitions, encodedValues, key, prerendered)
}

// DecodedMarker is a marker read back from a document. It holds the union
// of both marker shapes; Kind tells which one applies.
//
// Definitions and values are kept in their encoded form until Parameters is
// called. End records never need them.
type DecodedMarker struct {
	Type        *string `json:"type"`
	Sequence    *int    `json:"sequence"`
	Descriptor  *string `json:"descriptor"`
	TypeName    *string `json:"typeName"`
	Assembly    *string `json:"assembly"`
	Definitions *string `json:"definitions"`
	Values      *string `json:"values"`
	Key         *string `json:"key"`
	PrerenderID *string `json:"prerenderId"`

	once        sync.Once
	definitions []ComponentParameter
	values      []any
	err         error
}

// ParseComment decodes the text of a comment node (without "<!--" and
// "-->"). It returns ok=false when the comment is not a marker.
func ParseComment(text string) (m *DecodedMarker, ok bool, err error) {
	body, found := strings.CutPrefix(strings.TrimSpace(text), MarkerPrefix)
	if !found {
		return nil, false, nil
	}

	m = &DecodedMarker{}
	if err := markerJSON.UnmarshalFromString(body, m); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := m.validate(); err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// ParseFramed decodes a complete "<!--Marker:...-->" string.
func ParseFramed(framed string) (*DecodedMarker, error) {
	inner, ok := strings.CutPrefix(framed, commentOpen)
	if ok {
		inner, ok = strings.CutSuffix(inner, commentClose)
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a comment", ErrInvalidFormat)
	}
	m, isMarker, err := ParseComment(inner)
	if err != nil {
		return nil, err
	}
	if !isMarker {
		return nil, fmt.Errorf("%w: comment is not a marker", ErrInvalidFormat)
	}
	return m, nil
}

// Kind returns the marker type tag, or "" for end records.
func (m *DecodedMarker) Kind() string {
	if m.Type == nil {
		return ""
	}
	return *m.Type
}

// IsEnd reports whether m is an end record.
func (m *DecodedMarker) IsEnd() bool {
	return m.Type == nil
}

// ComponentType returns the identity of a webassembly start record.
func (m *DecodedMarker) ComponentType() ComponentType {
	return ComponentType{Name: deref(m.TypeName), Assembly: deref(m.Assembly)}
}

// Parameters decodes the definitions and values payloads on first use.
func (m *DecodedMarker) Parameters() (Parameters, error) {
	m.once.Do(func() {
		if m.Definitions == nil || m.Values == nil {
			return
		}
		if err := encoding.DecodePayload(*m.Definitions, &m.definitions); err != nil {
			m.err = wrapEncodingError(err)
			return
		}
		if err := encoding.DecodePayload(*m.Values, &m.values); err != nil {
			m.err = wrapEncodingError(err)
			return
		}
		if len(m.definitions) != len(m.values) {
			m.err = fmt.Errorf("%w: %d definitions for %d values", ErrInvalidFormat, len(m.definitions), len(m.values))
		}
	})
	if m.err != nil {
		return nil, m.err
	}

	params := make(Parameters, len(m.definitions))
	for i, def := range m.definitions {
		params[def.Name] = m.values[i]
	}
	return params, nil
}

// ParameterDefinitions returns the decoded definitions list.
func (m *DecodedMarker) ParameterDefinitions() ([]ComponentParameter, error) {
	if _, err := m.Parameters(); err != nil {
		return nil, err
	}
	return m.definitions, nil
}

func (m *DecodedMarker) validate() error {
	switch m.Kind() {
	case "":
		if m.PrerenderID == nil {
			return fmt.Errorf("%w: end record without prerender id", ErrInvalidFormat)
		}
		if m.Sequence != nil || m.Descriptor != nil || m.TypeName != nil || m.Assembly != nil ||
			m.Definitions != nil || m.Values != nil || m.Key != nil {
			return fmt.Errorf("%w: end record carries start fields", ErrInvalidFormat)
		}
		return nil
	case ServerMarkerType:
		return ServerMarker{Type: m.Type, Sequence: m.Sequence, Descriptor: m.Descriptor, Key: m.Key, PrerenderID: m.PrerenderID}.Validate()
	case WebAssemblyMarkerType:
		return WebAssemblyMarker{Type: m.Type, TypeName: m.TypeName, Assembly: m.Assembly, Definitions: m.Definitions, Values: m.Values, Key: m.Key, PrerenderID: m.PrerenderID}.Validate()
	default:
		return fmt.Errorf("%w: unknown marker type %q", ErrInvalidFormat, m.Kind())
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
