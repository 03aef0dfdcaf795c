package hxboundary

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
)

// Registry maps component type names to the components a session host may
// instantiate from a descriptor.
//
// Only registered components can be started from the client: a descriptor
// naming any other type is rejected even when its signature is valid.
type Registry struct {
	mu         sync.RWMutex
	protector  Protector
	components map[string]Renderer
	logger     *slog.Logger

	// OnError is called when a descriptor batch is rejected.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewRegistry creates a registry verifying descriptors with protector.
func NewRegistry(protector Protector) *Registry {
	if protector == nil {
		panic("hxboundary: registry requires a protector")
	}

	reg := &Registry{
		protector:  protector,
		components: make(map[string]Renderer),
		logger:     slog.Default(),
	}

	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		if IsDecryptionError(err) || IsInvalidDescriptor(err) {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}

	return reg
}

// SetLogger replaces the registry's logger.
func (reg *Registry) SetLogger(l *slog.Logger) {
	reg.logger = l
}

// Add registers components. Panics if a component has no type identity or
// its type name is already registered.
func (reg *Registry) Add(components ...Renderer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		ct, err := TypeOf(comp)
		if err != nil {
			panic(fmt.Sprintf("hxboundary: %v", err))
		}
		if _, exists := reg.components[ct.Name]; exists {
			panic(fmt.Sprintf("hxboundary: duplicate component %q", ct.Name))
		}
		reg.components[ct.Name] = comp
	}
}

// Invocation is a verified descriptor together with the component it names.
type Invocation struct {
	ServerComponent
	Component  Renderer
	Parameters Parameters
}

// Verify unprotects a batch of descriptors sent by one page and resolves
// their components. See VerifyBatch for the batch rules.
func (reg *Registry) Verify(descriptors []string) ([]Invocation, error) {
	components, err := VerifyBatch(reg.protector, descriptors)
	if err != nil {
		return nil, err
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	invocations := make([]Invocation, 0, len(components))
	for i, sc := range components {
		comp, ok := reg.components[sc.TypeName]
		if !ok {
			return nil, fmt.Errorf("%w: component %q is not registered", ErrInvalidDescriptor, sc.TypeName)
		}
		params, err := sc.Parameters()
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		invocations = append(invocations, Invocation{ServerComponent: sc, Component: comp, Parameters: params})
	}
	return invocations, nil
}

// VerifyBatch unprotects descriptors presented together when a session
// starts. All must belong to the same page invocation and carry distinct
// sequence numbers.
func VerifyBatch(p Protector, descriptors []string) ([]ServerComponent, error) {
	components := make([]ServerComponent, 0, len(descriptors))
	seen := make(map[int]bool, len(descriptors))

	for i, descriptor := range descriptors {
		sc, err := p.Unprotect(descriptor)
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		if i > 0 && sc.InvocationID != components[0].InvocationID {
			return nil, fmt.Errorf("%w: descriptor %d belongs to another page", ErrInvalidDescriptor, i)
		}
		if seen[sc.Sequence] {
			return nil, fmt.Errorf("%w: sequence %d presented twice", ErrInvalidDescriptor, sc.Sequence)
		}
		seen[sc.Sequence] = true
		components = append(components, sc)
	}
	return components, nil
}

// StartRecord is what the client sends for each discovered session-hosted
// marker when it starts a session.
type StartRecord struct {
	Type        string  `json:"type"`
	Sequence    int     `json:"sequence"`
	Descriptor  string  `json:"descriptor"`
	Key         *string `json:"key,omitempty"`
	PrerenderID *string `json:"prerenderId,omitempty"`
}

type verifiedRecord struct {
	Sequence int    `json:"sequence"`
	TypeName string `json:"typeName"`
	Key      string `json:"key"`
}

// Handler returns an HTTP handler that verifies a JSON array of
// StartRecords and answers with the resolved components. Each record's
// sequence must match the one sealed in its descriptor. Session hosts call
// it (or Verify directly) before instantiating anything.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			reg.OnError(w, r, err)
			return
		}
		var records []StartRecord
		if err := sonic.ConfigStd.Unmarshal(body, &records); err != nil {
			reg.OnError(w, r, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err))
			return
		}

		descriptors := make([]string, len(records))
		for i, rec := range records {
			if rec.Type != ServerMarkerType {
				reg.OnError(w, r, fmt.Errorf("%w: record %d has type %q", ErrInvalidDescriptor, i, rec.Type))
				return
			}
			descriptors[i] = rec.Descriptor
		}

		invocations, err := reg.Verify(descriptors)
		if err != nil {
			reg.logger.WarnContext(r.Context(), "descriptor batch rejected", slog.Int("count", len(records)), slog.Any("error", err))
			reg.OnError(w, r, err)
			return
		}

		for i, inv := range invocations {
			if records[i].Sequence != inv.Sequence {
				err := fmt.Errorf("%w: record %d claims sequence %d, descriptor carries %d", ErrInvalidDescriptor, i, records[i].Sequence, inv.Sequence)
				reg.logger.WarnContext(r.Context(), "descriptor batch rejected", slog.Int("count", len(records)), slog.Any("error", err))
				reg.OnError(w, r, err)
				return
			}
		}

		out := make([]verifiedRecord, len(invocations))
		for i, inv := range invocations {
			out[i] = verifiedRecord{Sequence: inv.Sequence, TypeName: inv.TypeName, Key: inv.Key}
		}
		data, err := sonic.ConfigStd.Marshal(out)
		if err != nil {
			reg.OnError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
}
