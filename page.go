package hxboundary

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/a-h/templ"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// bufferTarget collects prerendered output so the start markers can be
// written ahead of it.
type bufferTarget struct {
	ctx context.Context
	buf bytes.Buffer
}

func (t *bufferTarget) Render(fragment templ.Component) error {
	return fragment.Render(t.ctx, &t.buf)
}

// Declaration places a component behind a boundary at a fixed position in a
// page.
type Declaration struct {
	Component  Renderer
	Mode       RenderMode
	Parameters Parameters

	// Sequence is the declaration's position within its parent template.
	Sequence int

	// Key distinguishes repeated declarations at the same position, such as
	// rows of a list. May be nil.
	Key any
}

// WriteBoundary runs one render pass of b and writes the result to w:
// the start markers, then the prerendered output if any, then the end
// records in reverse order so the pairs nest.
//
// The render context is read from ctx; it is only required when b emits a
// session-hosted marker. Errors abort the page: nothing is written to w for
// a boundary that failed.
func WriteBoundary(ctx context.Context, w io.Writer, b *Boundary, d Declaration) error {
	rc, _ := FromContext(ctx)
	if rc == nil {
		rc = NewRenderContext(nil)
		ctx = WithRenderContext(ctx, rc)
	}

	ctx, span := rc.Tracer().Start(ctx, "hxboundary.WriteBoundary", trace.WithAttributes(
		attribute.String("hxboundary.mode", b.mode.String()),
		attribute.Int("hxboundary.sequence", d.Sequence),
	))
	defer span.End()

	err := writeBoundary(ctx, rc, w, b, d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rc.Metrics().boundaryFailed(err)
		rc.Logger().WarnContext(ctx, "boundary render aborted",
			slog.String("component", b.displayName()),
			slog.String("mode", b.mode.String()),
			slog.Int("sequence", d.Sequence),
			slog.Any("error", err),
		)
	}
	return err
}

func writeBoundary(ctx context.Context, rc *RenderContext, w io.Writer, b *Boundary, d Declaration) error {
	target := &bufferTarget{ctx: ctx}
	b.Attach(target)
	if err := b.SetParameters(d.Parameters); err != nil {
		return err
	}

	markers, err := b.Markers(rc, d.Sequence, d.Key)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if markers.Server != nil {
		if err := WriteMarker(&out, *markers.Server); err != nil {
			return err
		}
	}
	if markers.WebAssembly != nil {
		if err := WriteMarker(&out, *markers.WebAssembly); err != nil {
			return err
		}
	}

	if b.mode.Prerender {
		out.Write(target.buf.Bytes())
		if markers.WebAssembly != nil {
			if err := WriteWebAssemblyEnd(&out, *markers.WebAssembly); err != nil {
				return err
			}
		}
		if markers.Server != nil {
			if err := WriteServerEnd(&out, *markers.Server); err != nil {
				return err
			}
		}
	}

	if _, err := out.WriteTo(w); err != nil {
		return err
	}

	if markers.Server != nil {
		rc.Metrics().markerEmitted(ServerMarkerType, b.mode.Prerender)
	}
	if markers.WebAssembly != nil {
		rc.Metrics().markerEmitted(WebAssemblyMarkerType, b.mode.Prerender)
	}
	rc.Logger().DebugContext(ctx, "boundary rendered",
		slog.String("component", b.displayName()),
		slog.String("mode", b.mode.String()),
		slog.Int("sequence", d.Sequence),
		slog.String("key", b.Key()),
		slog.Int("markers", markers.Len()),
	)
	return nil
}

// Island returns a templ component that renders d behind a fresh boundary.
// Use it from templates:
//
//	@hxboundary.Island(hxboundary.Declaration{
//	    Component:  clock,
//	    Mode:       hxboundary.InteractiveServer(true),
//	    Parameters: hxboundary.Parameters{"Zone": "UTC"},
//	    Sequence:   3,
//	    Key:        row.ID,
//	})
func Island(d Declaration) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b, err := NewBoundary(d.Component, d.Mode)
		if err != nil {
			return err
		}
		return WriteBoundary(ctx, w, b, d)
	})
}
