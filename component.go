package hxboundary

import (
	"context"
	"fmt"
	"reflect"

	"github.com/a-h/templ"
)

// ComponentType is the identity the interactive runtime uses to instantiate
// a component: its fully qualified type name and the package (assembly)
// that declares it.
type ComponentType struct {
	Name     string
	Assembly string
}

// String returns the fully qualified name.
func (ct ComponentType) String() string {
	return ct.Name
}

// valid reports whether both identity fields are populated.
func (ct ComponentType) valid() bool {
	return ct.Name != "" && ct.Assembly != ""
}

// TypeOf returns the identity of a component.
//
// Components implementing TypeIdentifier supply their own identity.
// Otherwise the identity is reflected from the dynamic type: Name is
// "<package path>.<type name>" and Assembly is the package path.
// Unnamed types have no identity and yield ErrMissingTypeIdentity.
func TypeOf(r Renderer) (ComponentType, error) {
	if r == nil {
		return ComponentType{}, fmt.Errorf("%w: nil component", ErrMissingTypeIdentity)
	}
	if ti, ok := r.(TypeIdentifier); ok {
		ct := ti.ComponentType()
		if !ct.valid() {
			return ComponentType{}, fmt.Errorf("%w: %T reports %+v", ErrMissingTypeIdentity, r, ct)
		}
		return ct, nil
	}
	if _, ok := r.(RendererFunc); ok {
		return ComponentType{}, fmt.Errorf("%w: RendererFunc must be wrapped with Named", ErrMissingTypeIdentity)
	}

	t := reflect.TypeOf(r)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ComponentType{}, fmt.Errorf("%w: %s", ErrMissingTypeIdentity, t)
	}
	return ComponentType{Name: t.PkgPath() + "." + t.Name(), Assembly: t.PkgPath()}, nil
}

// RendererFunc adapts a function to Renderer. A RendererFunc has no type
// identity of its own; wrap it with Named before placing it in a boundary.
type RendererFunc func(ctx context.Context, params Parameters) templ.Component

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, params Parameters) templ.Component {
	return f(ctx, params)
}

// Named gives fn an explicit identity.
//
//	clock := hxboundary.Named(hxboundary.ComponentType{
//	    Name:     "Widgets.Clock",
//	    Assembly: "Widgets",
//	}, renderClock)
func Named(ct ComponentType, fn RendererFunc) Renderer {
	return &namedRenderer{ct: ct, fn: fn}
}

type namedRenderer struct {
	ct ComponentType
	fn RendererFunc
}

func (n *namedRenderer) ComponentType() ComponentType { return n.ct }

func (n *namedRenderer) Render(ctx context.Context, params Parameters) templ.Component {
	return n.fn(ctx, params)
}
