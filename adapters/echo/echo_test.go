package hxboundaryecho

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/pthm/hxboundary"
	"github.com/pthm/hxboundary/client"
)

type counter struct{}

func (counter) ComponentType() hxboundary.ComponentType {
	return hxboundary.ComponentType{Name: "Demo.Counter", Assembly: "Demo"}
}

func (counter) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<span>%v</span>", params["Count"])
		return err
	})
}

func page() templ.Component {
	return hxboundary.Island(hxboundary.Declaration{
		Component:  counter{},
		Mode:       hxboundary.InteractiveServer(true),
		Parameters: hxboundary.Parameters{"Count": 3},
	})
}

func TestMount(t *testing.T) {
	e := echo.New()
	reg := Mount(e)

	if reg == nil {
		t.Fatal("Mount returned nil registry")
	}
}

func TestMountGroup(t *testing.T) {
	e := echo.New()
	g := e.Group("/app")
	reg := MountGroup(g)

	if reg == nil {
		t.Fatal("MountGroup returned nil registry")
	}
}

func TestRenderInstallsContext(t *testing.T) {
	e := echo.New()
	Mount(e, WithKey(make([]byte, 32)))
	e.GET("/", func(c echo.Context) error {
		if _, ok := hxboundary.FromContext(c.Request().Context()); !ok {
			t.Error("render context missing")
		}
		return Render(c, page())
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<span>3</span>") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"signed", nil},
		{"encrypted", []Option{WithEncryption()}},
		{"custom path", []Option{WithPath("/verify")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			reg := Mount(e, tt.opts...)
			reg.Add(counter{})
			e.GET("/", func(c echo.Context) error { return Render(c, page()) })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			doc, err := client.DiscoverString(rec.Body.String())
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			payload, err := client.NewSessionDescriptor(doc.Server, "").StartPayload()
			if err != nil {
				t.Fatalf("StartPayload() error = %v", err)
			}

			path := DefaultPath
			if tt.name == "custom path" {
				path = "/verify"
			}
			rec = httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload)))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}

			var verified []map[string]any
			if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &verified); err != nil {
				t.Fatal(err)
			}
			if len(verified) != 1 || verified[0]["typeName"] != "Demo.Counter" {
				t.Errorf("verified = %v", verified)
			}
		})
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	e := echo.New()
	Mount(e, WithKey([]byte("server-a-key-server-a-key-server")))
	other := echo.New()
	Mount(other, WithKey([]byte("server-b-key-server-b-key-server")))
	other.GET("/", func(c echo.Context) error { return Render(c, page()) })

	rec := httptest.NewRecorder()
	other.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	doc, err := client.DiscoverString(rec.Body.String())
	if err != nil {
		t.Fatal(err)
	}
	payload, _ := client.NewSessionDescriptor(doc.Server, "").StartPayload()

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, DefaultPath, bytes.NewReader(payload)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGETNotRouted(t *testing.T) {
	e := echo.New()
	Mount(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultPath, nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET verify = %d, want 405", rec.Code)
	}
}
