package hxboundary

import (
	"context"
	"fmt"
	"html"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// clock stands in for a "Widgets.Clock" component.
type clock struct {
	renders int
}

func (c *clock) ComponentType() ComponentType {
	return ComponentType{Name: "Widgets.Clock", Assembly: "Widgets"}
}

func (c *clock) Render(ctx context.Context, params Parameters) templ.Component {
	c.renders++
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, fmt.Sprintf(`<time class="clock">%s</time>`, html.EscapeString(fmt.Sprint(params["Now"]))))
		return err
	})
}

// plainWidget relies on reflected type identity.
type plainWidget struct{}

func (plainWidget) Render(ctx context.Context, params Parameters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>plain</p>")
		return err
	})
}

func newTestProtector(opts ...ProtectorOption) *DataProtector {
	p, err := NewDataProtector(testKey, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func newTestRenderContext() *RenderContext {
	return NewRenderContext(nil, WithProtector(newTestProtector()))
}

// recordingTarget renders fragments immediately into buf.
type recordingTarget struct {
	buf   []byte
	calls int
}

func (t *recordingTarget) Render(fragment templ.Component) error {
	t.calls++
	w := &sliceWriter{b: &t.buf}
	return fragment.Render(context.Background(), w)
}

type sliceWriter struct{ b *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.b = append(*w.b, p...)
	return len(p), nil
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
