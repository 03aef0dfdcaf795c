package hxboundary

import (
	"fmt"
	"maps"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/a-h/templ"
)

// Parameters are the named values supplied to a component for one render pass.
type Parameters map[string]any

// Snapshot returns an owned copy of p. Callers may reuse their map after
// handing it to a boundary; the boundary keeps the snapshot.
func (p Parameters) Snapshot() Parameters {
	if p == nil {
		return Parameters{}
	}
	return maps.Clone(p)
}

// Names returns the parameter names in sorted order.
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComponentParameter describes one parameter so the locally-hosted runtime
// can rebuild the parameter view. TypeName and Assembly are nil when the
// value is nil.
type ComponentParameter struct {
	Name     string  `json:"name"`
	TypeName *string `json:"typeName"`
	Assembly *string `json:"assembly"`
}

// ParameterDefinitions splits p into definitions and values, ordered by
// parameter name so the two lists line up and the output is deterministic.
func ParameterDefinitions(p Parameters) ([]ComponentParameter, []any) {
	names := p.Names()
	definitions := make([]ComponentParameter, 0, len(names))
	values := make([]any, 0, len(names))

	for _, name := range names {
		value := p[name]
		def := ComponentParameter{Name: name}
		if value != nil {
			typeName, assembly := valueTypeIdentity(reflect.TypeOf(value))
			def.TypeName = &typeName
			def.Assembly = &assembly
		}
		definitions = append(definitions, def)
		values = append(values, value)
	}

	return definitions, values
}

// valueTypeIdentity names a parameter's type. Built-in and unnamed types
// report an empty assembly.
func valueTypeIdentity(t reflect.Type) (string, string) {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name(), t.PkgPath()
	}
	return t.String(), ""
}

var templComponentType = reflect.TypeOf((*templ.Component)(nil)).Elem()

// isTemplatedContent reports whether t is a function producing markup from a
// single argument, i.e. child content parameterized by a value.
func isTemplatedContent(t reflect.Type) bool {
	return t.Kind() == reflect.Func &&
		t.NumIn() == 1 &&
		t.NumOut() == 1 &&
		t.Out(0) == templComponentType
}

// validateParameters rejects callables. They are arbitrary code and cannot be
// written into a marker; dropping them would change behavior once the
// component becomes interactive.
func validateParameters(component string, mode RenderMode, p Parameters) error {
	for _, name := range p.Names() {
		value := p[name]
		if value == nil {
			continue
		}
		t := reflect.TypeOf(value)
		if t.Kind() != reflect.Func {
			// Both marker kinds must carry the same bytes.
			if !validUTF8(reflect.ValueOf(value), 0) {
				return fmt.Errorf("%w: parameter %q to component %q with render mode %q contains a string that is not valid UTF-8",
					ErrInvalidUTF8Parameter, name, component, mode)
			}
			continue
		}

		// Passing child content is the usual mistake, so it gets its own error.
		if isTemplatedContent(t) {
			return fmt.Errorf("%w: cannot pass templated content parameter %q to component %q with render mode %q; templated content is arbitrary code and cannot be serialized",
				ErrTemplatedContentParameter, name, component, mode)
		}
		return fmt.Errorf("%w: cannot pass parameter %q to component %q with render mode %q; the parameter is of the function type %s, which is arbitrary code and cannot be serialized",
			ErrCallableParameter, name, component, mode, t)
	}
	return nil
}

// maxValueDepth bounds the walk over nested parameter values.
const maxValueDepth = 32

// validUTF8 reports whether every string reachable from v is valid UTF-8.
func validUTF8(v reflect.Value, depth int) bool {
	if depth > maxValueDepth {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return utf8.ValidString(v.String())
	case reflect.Pointer, reflect.Interface:
		return v.IsNil() || validUTF8(v.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return true
		}
		for i := 0; i < v.Len(); i++ {
			if !validUTF8(v.Index(i), depth+1) {
				return false
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !validUTF8(iter.Key(), depth+1) || !validUTF8(iter.Value(), depth+1) {
				return false
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() && !validUTF8(v.Field(i), depth+1) {
				return false
			}
		}
	}
	return true
}
