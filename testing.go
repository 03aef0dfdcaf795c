package hxboundary

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
)

// TestResult holds the output of rendering a boundary for testing.
//
// Provides convenience methods for asserting on HTML content and on the
// markers framed around it.
type TestResult struct {
	HTML    string
	Markers []*DecodedMarker

	// Context is the render context used for the render, so tests can
	// inspect the page invocation.
	Context *RenderContext
}

// TestRenderBoundary renders d behind a fresh boundary and parses the
// markers out of the result.
//
// Use this for unit tests of components placed behind boundaries:
//
//	protector, _ := hxboundary.NewDataProtector(testKey)
//	result, err := hxboundary.TestRenderBoundary(hxboundary.Declaration{
//	    Component: clock,
//	    Mode:      hxboundary.InteractiveServer(true),
//	}, hxboundary.WithProtector(protector))
//	if len(result.StartMarkers(hxboundary.ServerMarkerType)) != 1 {
//	    t.Fatal("missing server marker")
//	}
func TestRenderBoundary(d Declaration, opts ...Option) (*TestResult, error) {
	return TestRenderBoundaryWithContext(context.Background(), d, opts...)
}

// TestRenderBoundaryWithContext renders d with a custom parent context.
// A RenderContext built from opts is installed unless ctx already has one.
func TestRenderBoundaryWithContext(ctx context.Context, d Declaration, opts ...Option) (*TestResult, error) {
	rc, ok := FromContext(ctx)
	if !ok {
		rc = NewRenderContext(httptest.NewRequest("GET", "/", nil), opts...)
		ctx = WithRenderContext(ctx, rc)
	}

	var buf bytes.Buffer
	if err := Island(d).Render(ctx, &buf); err != nil {
		return nil, err
	}

	html := buf.String()
	markers, err := parseMarkersFromHTML(html)
	if err != nil {
		return nil, err
	}
	return &TestResult{HTML: html, Markers: markers, Context: rc}, nil
}

// HTMLContains checks if the HTML output contains the given substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// Content returns the HTML with every marker comment removed.
func (r *TestResult) Content() string {
	var sb strings.Builder
	rest := r.HTML
	for {
		start := strings.Index(rest, commentOpen+MarkerPrefix)
		if start < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		sb.WriteString(rest[:start])
		end := strings.Index(rest[start:], commentClose)
		if end < 0 {
			return sb.String()
		}
		rest = rest[start+end+len(commentClose):]
	}
}

// StartMarkers returns the start records of the given type in document order.
func (r *TestResult) StartMarkers(kind string) []*DecodedMarker {
	var out []*DecodedMarker
	for _, m := range r.Markers {
		if m.Kind() == kind {
			out = append(out, m)
		}
	}
	return out
}

// EndMarkers returns the end records in document order.
func (r *TestResult) EndMarkers() []*DecodedMarker {
	return r.StartMarkers("")
}

// parseMarkersFromHTML extracts framed markers in document order.
func parseMarkersFromHTML(html string) ([]*DecodedMarker, error) {
	var markers []*DecodedMarker
	rest := html
	for {
		start := strings.Index(rest, commentOpen+MarkerPrefix)
		if start < 0 {
			return markers, nil
		}
		end := strings.Index(rest[start:], commentClose)
		if end < 0 {
			return markers, nil
		}
		m, err := ParseFramed(rest[start : start+end+len(commentClose)])
		if err != nil {
			return nil, err
		}
		markers = append(markers, m)
		rest = rest[start+end+len(commentClose):]
	}
}
