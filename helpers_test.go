package hxboundary

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestRenderWritesPage(t *testing.T) {
	page := Island(Declaration{Component: &clock{}, Mode: InteractiveServer(true), Parameters: Parameters{"Now": "9"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := Render(rec, req, page, WithProtector(newTestProtector())); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<!--Marker:{\"type\":\"server\"") || !strings.Contains(body, `<time class="clock">9</time>`) {
		t.Errorf("body = %q", body)
	}
}

func TestRenderUsesMiddlewareContext(t *testing.T) {
	var rc *RenderContext
	h := Middleware(WithProtector(newTestProtector()))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, _ = FromContext(r.Context())
		page := Island(Declaration{Component: &clock{}, Mode: InteractiveServer(false)})
		if err := Render(w, r, page); err != nil {
			t.Errorf("Render() error = %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	markers, err := parseMarkersFromHTML(rec.Body.String())
	if err != nil || len(markers) != 1 {
		t.Fatalf("markers = %v, err = %v", markers, err)
	}
	sc, err := rc.Protector().Unprotect(*markers[0].Descriptor)
	if err != nil {
		t.Fatalf("Unprotect() error = %v", err)
	}
	if sc.InvocationID != rc.Invocation().ID() {
		t.Error("descriptor should carry the middleware's invocation")
	}
}

func TestRenderAbortsPageOnBoundaryError(t *testing.T) {
	page := templ.Join(
		templ.Raw("<header></header>"),
		Island(Declaration{Component: &clock{}, Mode: InteractiveServer(false), Parameters: Parameters{"Fn": func() {}}}),
	)

	rec := httptest.NewRecorder()
	err := Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), page, WithProtector(newTestProtector()))
	if !IsConfigurationError(err) {
		t.Fatalf("Render() error = %v, want configuration error", err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial page sent: %q", rec.Body.String())
	}
}
