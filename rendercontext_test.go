package hxboundary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestInvocationCreatedOnce(t *testing.T) {
	rc := NewRenderContext(nil)

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = rc.Invocation().ID()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("invocation ids differ: %q vs %q", id, ids[0])
		}
	}
	if len(ids[0]) != 32 {
		t.Errorf("invocation id %q should be 32 hex digits", ids[0])
	}
}

func TestInvocationNextIsUnique(t *testing.T) {
	seq := NewRenderContext(nil).Invocation()

	const n = 100
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := seq.Next()
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if !seen[i] {
			t.Fatalf("sequence %d never handed out", i)
		}
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should have no render context")
	}
	if _, ok := FromContext(WithRenderContext(context.Background(), nil)); ok {
		t.Error("nil render context should not be reported")
	}

	rc := NewRenderContext(nil)
	got, ok := FromContext(WithRenderContext(context.Background(), rc))
	if !ok || got != rc {
		t.Errorf("FromContext() = %v, %v", got, ok)
	}
}

func TestMiddlewareInstallsFreshContext(t *testing.T) {
	protector := newTestProtector()
	var seen []*RenderContext

	h := Middleware(WithProtector(protector))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, ok := FromContext(r.Context())
		if !ok {
			t.Fatal("middleware did not install a render context")
		}
		if rc.Protector() != protector || rc.Request() == nil {
			t.Errorf("render context not configured: %+v", rc)
		}
		seen = append(seen, rc)
	}))

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Fatal("each request needs its own render context")
	}
	if seen[0].Invocation().ID() == seen[1].Invocation().ID() {
		t.Error("pages should not share an invocation")
	}
}

func TestRenderContextDefaults(t *testing.T) {
	rc := NewRenderContext(nil)
	if rc.Logger() == nil || rc.Tracer() == nil {
		t.Error("logger and tracer should fall back to defaults")
	}
	if rc.Metrics() != nil || rc.Protector() != nil {
		t.Error("metrics and protector are opt-in")
	}
}
