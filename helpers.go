package hxboundary

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context, so boundaries inside the page find the RenderContext
// installed by Middleware:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hxboundary.Render(w, r, pageTemplate())
//	}
//
// The page is rendered into memory first. A boundary that fails aborts the
// whole page and no partial markup is sent.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component, opts ...Option) error {
	ctx := r.Context()
	if _, ok := FromContext(ctx); !ok {
		ctx = WithRenderContext(ctx, NewRenderContext(r, opts...))
	}

	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}
