package client

import (
	"strings"
	"testing"

	"github.com/pthm/hxboundary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverDocumentOrder(t *testing.T) {
	page := renderPage(t,
		hxboundary.Declaration{Component: clock{}, Mode: hxboundary.InteractiveServer(true), Parameters: hxboundary.Parameters{"Now": "a"}},
		hxboundary.Declaration{Component: clock{}, Mode: hxboundary.InteractiveWebAssembly(false), Sequence: 1},
		hxboundary.Declaration{Component: clock{}, Mode: hxboundary.InteractiveServer(false), Sequence: 2},
		hxboundary.Declaration{Component: clock{}, Mode: hxboundary.InteractiveAuto(true), Sequence: 3, Parameters: hxboundary.Parameters{"Now": "b"}},
	)

	doc, err := DiscoverString(page)
	require.NoError(t, err)
	require.Len(t, doc.Server, 3)
	require.Len(t, doc.WebAssembly, 2)
	assert.Equal(t, 5, doc.Len())

	for i, d := range doc.Server {
		assert.Equal(t, i, d.Sequence)
		assert.Equal(t, hxboundary.ServerMarkerType, d.Kind)
		assert.Equal(t, i, *d.Marker.Sequence)
	}
	for i, d := range doc.WebAssembly {
		assert.Equal(t, i, d.Sequence)
	}

	first := doc.Server[0]
	require.True(t, first.Prerendered())
	assert.Equal(t, Prerendered, first.State())
	content, ok := first.Content()
	require.True(t, ok)
	assert.Equal(t, "<time>a</time>", page[content.Offset:content.End()])
	assert.True(t, strings.HasPrefix(page[first.Start.Offset:], "<!--Marker:"))
	assert.Equal(t, "-->", page[first.End.End()-3:first.End.End()])

	plain := doc.Server[1]
	assert.False(t, plain.Prerendered())
	assert.Equal(t, Declared, plain.State())
	_, ok = plain.Content()
	assert.False(t, ok)

	// Auto: both start records frame the same output.
	autoServer, autoWasm := doc.Server[2], doc.WebAssembly[1]
	serverContent, _ := autoServer.Content()
	wasmContent, _ := autoWasm.Content()
	assert.Equal(t, "<time>b</time>", page[wasmContent.Offset:wasmContent.End()])
	assert.Contains(t, page[serverContent.Offset:serverContent.End()], "<time>b</time>")
	assert.Equal(t, autoServer.Key(), autoWasm.Key())
}

func TestDiscoverWebAssemblyParameters(t *testing.T) {
	page := renderPage(t, hxboundary.Declaration{
		Component:  clock{},
		Mode:       hxboundary.InteractiveWebAssembly(false),
		Parameters: hxboundary.Parameters{"Now": "noon", "Offset": 2},
		Sequence:   3,
		Key:        "row-5",
	})

	doc, err := DiscoverString(page)
	require.NoError(t, err)
	require.Len(t, doc.WebAssembly, 1)

	d := doc.WebAssembly[0]
	assert.Equal(t, hxboundary.ComponentType{Name: "Widgets.Clock", Assembly: "Widgets"}, d.Marker.ComponentType())
	assert.True(t, strings.HasSuffix(d.Key(), ":3:row-5"))

	params, err := d.Marker.Parameters()
	require.NoError(t, err)
	assert.Equal(t, "noon", params["Now"])
	assert.Equal(t, float64(2), params["Offset"])

	_, err = d.Record()
	assert.Error(t, err, "webassembly boundaries have no session record")
}

func TestDiscoverErrors(t *testing.T) {
	const start = `<!--Marker:{"type":"server","sequence":0,"descriptor":"d","key":"k","prerenderId":"aa"}-->`
	const start2 = `<!--Marker:{"type":"server","sequence":1,"descriptor":"d","key":"k","prerenderId":"bb"}-->`
	const endA = `<!--Marker:{"type":null,"sequence":null,"descriptor":null,"key":null,"prerenderId":"aa"}-->`
	const endB = `<!--Marker:{"type":null,"sequence":null,"descriptor":null,"key":null,"prerenderId":"bb"}-->`
	const plain = `<!--Marker:{"type":"server","sequence":0,"descriptor":"d","key":"k","prerenderId":null}-->`

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"end without start", "<p>" + endA + "</p>", ErrUnmatchedEndMarker},
		{"unknown prerender id", start + endB, ErrUnmatchedEndMarker},
		{"overlapping pairs", start + start2 + endA + endB, ErrUnmatchedEndMarker},
		{"closed twice", start + endA + endA, ErrUnmatchedEndMarker},
		{"never closed", start + "<p>content</p>", ErrUnclosedMarker},
		{"malformed marker", `<!--Marker:{"type":"server"-->`, hxboundary.ErrInvalidFormat},
		{"duplicate sequence", plain + "<p>x</p>" + plain, ErrDuplicateSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DiscoverString(tt.doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDiscoverIgnoresRawTextComments(t *testing.T) {
	const marker = `<!--Marker:{"type":"server","sequence":0,"descriptor":"d","key":"k","prerenderId":null}-->`
	doc, err := DiscoverString("<script>var s = '" + marker + "';</script><textarea>" + marker + "</textarea>")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

func TestDiscoverNestedPrerendered(t *testing.T) {
	outer := `<!--Marker:{"type":"server","sequence":0,"descriptor":"d","key":"k","prerenderId":"aa"}-->`
	inner := `<!--Marker:{"type":"server","sequence":1,"descriptor":"d","key":"k","prerenderId":"bb"}-->`
	endInner := `<!--Marker:{"type":null,"sequence":null,"descriptor":null,"key":null,"prerenderId":"bb"}-->`
	endOuter := `<!--Marker:{"type":null,"sequence":null,"descriptor":null,"key":null,"prerenderId":"aa"}-->`

	page := outer + "<div>" + inner + "<b>x</b>" + endInner + "</div>" + endOuter
	doc, err := DiscoverString(page)
	require.NoError(t, err)
	require.Len(t, doc.Server, 2)

	c, _ := doc.Server[1].Content()
	assert.Equal(t, "<b>x</b>", page[c.Offset:c.End()])
	c, _ = doc.Server[0].Content()
	assert.Equal(t, "<div>"+inner+"<b>x</b>"+endInner+"</div>", page[c.Offset:c.End()])
}

func TestDiscoverOrdersServerBySealedSequence(t *testing.T) {
	page := renderPage(t, hxboundary.Declaration{
		Component:  panel{},
		Mode:       hxboundary.InteractiveServer(true),
		Parameters: hxboundary.Parameters{"Now": "noon"},
	})

	doc, err := DiscoverString(page)
	require.NoError(t, err)
	require.Len(t, doc.Server, 2)

	// The nested clock renders first, so it holds sequence 0 while its
	// marker comes second in the document.
	inner, outer := doc.Server[0], doc.Server[1]
	assert.Equal(t, 0, inner.Sequence)
	assert.Equal(t, 1, outer.Sequence)
	assert.Equal(t, inner.Sequence, *inner.Marker.Sequence)
	assert.Equal(t, outer.Sequence, *outer.Marker.Sequence)
	assert.Greater(t, inner.Start.Offset, outer.Start.Offset)

	c, ok := inner.Content()
	require.True(t, ok)
	assert.Equal(t, "<time>noon</time>", page[c.Offset:c.End()])
	c, ok = outer.Content()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(page[c.Offset:c.End()], "<section>"))
}
