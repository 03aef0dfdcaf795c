package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/pthm/hxboundary"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type clock struct{}

func (clock) ComponentType() hxboundary.ComponentType {
	return hxboundary.ComponentType{Name: "Widgets.Clock", Assembly: "Widgets"}
}

func (clock) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<time>%v</time>`, params["Now"])
		return err
	})
}

// panel prerenders a session-hosted clock inside its own output.
type panel struct{}

func (panel) ComponentType() hxboundary.ComponentType {
	return hxboundary.ComponentType{Name: "Widgets.Panel", Assembly: "Widgets"}
}

func (panel) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<section>"); err != nil {
			return err
		}
		err := hxboundary.Island(hxboundary.Declaration{
			Component:  clock{},
			Mode:       hxboundary.InteractiveServer(true),
			Parameters: hxboundary.Parameters{"Now": params["Now"]},
		}).Render(ctx, w)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, "</section>")
		return err
	})
}

// renderPage renders the declarations in order inside a <main> element,
// the way a server page would, and returns the document.
func renderPage(t *testing.T, decls ...hxboundary.Declaration) string {
	t.Helper()

	protector, err := hxboundary.NewDataProtector(testKey)
	require.NoError(t, err)
	rc := hxboundary.NewRenderContext(nil, hxboundary.WithProtector(protector))
	ctx := hxboundary.WithRenderContext(context.Background(), rc)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><body><main><!-- plain comment -->")
	for _, d := range decls {
		require.NoError(t, hxboundary.Island(d).Render(ctx, &sb))
	}
	sb.WriteString("</main></body></html>")
	return sb.String()
}
