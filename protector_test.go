package hxboundary

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDataProtectorRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []ProtectorOption
	}{
		{"signed", nil},
		{"encrypted", []ProtectorOption{WithEncryption()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProtector(tc.opts...)
			in := ServerComponent{
				Sequence:             2,
				TypeName:             "Widgets.Clock",
				AssemblyName:         "Widgets",
				ParameterDefinitions: []ComponentParameter{{Name: "Zone", TypeName: ptr("string")}},
				ParameterValues:      []any{"UTC"},
				Key:                  "K:2:",
				InvocationID:         "abc",
			}

			descriptor, err := p.Protect(in)
			if err != nil {
				t.Fatalf("Protect() error = %v", err)
			}
			out, err := p.Unprotect(descriptor)
			if err != nil {
				t.Fatalf("Unprotect() error = %v", err)
			}
			if out.TypeName != in.TypeName || out.Sequence != 2 || out.InvocationID != "abc" {
				t.Errorf("Unprotect() = %+v", out)
			}
			params, err := out.Parameters()
			if err != nil {
				t.Fatalf("Parameters() error = %v", err)
			}
			if params["Zone"] != "UTC" {
				t.Errorf("Zone = %v", params["Zone"])
			}
		})
	}
}

func TestEncryptedDescriptorIsOpaque(t *testing.T) {
	p := newTestProtector(WithEncryption())
	descriptor, err := p.Protect(ServerComponent{TypeName: "Widgets.Clock", ParameterValues: []any{"secret-zone"}})
	if err != nil {
		t.Fatalf("Protect() error = %v", err)
	}
	if strings.Contains(descriptor, "Widgets") || strings.Contains(descriptor, ".") {
		t.Errorf("encrypted descriptor should be opaque: %q", descriptor)
	}
}

func TestDescriptorExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newTestProtector(WithMaxAge(time.Minute), WithClock(func() time.Time { return now }))

	descriptor, err := p.Protect(ServerComponent{TypeName: "Widgets.Clock"})
	if err != nil {
		t.Fatalf("Protect() error = %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := p.Unprotect(descriptor); err != nil {
		t.Fatalf("Unprotect() before expiry error = %v", err)
	}

	now = now.Add(time.Second)
	_, err = p.Unprotect(descriptor)
	if !errors.Is(err, ErrDescriptorExpired) {
		t.Errorf("Unprotect() error = %v, want ErrDescriptorExpired", err)
	}
	if !IsInvalidDescriptor(err) {
		t.Error("expired descriptor should be an invalid descriptor")
	}
}

func TestTamperedDescriptor(t *testing.T) {
	p := newTestProtector()
	descriptor, _ := p.Protect(ServerComponent{TypeName: "Widgets.Clock"})

	payload, sig, _ := strings.Cut(descriptor, ".")
	first := "A"
	if payload[0] == 'A' {
		first = "B"
	}
	tampered := first + payload[1:] + "." + sig
	if _, err := p.Unprotect(tampered); !IsDecryptionError(err) {
		t.Errorf("Unprotect(tampered) error = %v, want decryption error", err)
	}

	other, _ := NewDataProtector([]byte("another-key-another-key-another!"))
	if _, err := other.Unprotect(descriptor); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Unprotect(other key) error = %v, want ErrSignatureInvalid", err)
	}

	if _, err := p.Unprotect("garbage"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Unprotect(garbage) error = %v, want ErrInvalidFormat", err)
	}
}

func TestNewDataProtectorRejectsEmptyKey(t *testing.T) {
	if _, err := NewDataProtector(nil); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestSerializeServerSealsInvocation(t *testing.T) {
	rc := newTestRenderContext()
	ct := ComponentType{Name: "Widgets.Clock", Assembly: "Widgets"}

	m, err := SerializeServer(rc, ct, Parameters{"Now": "x"}, "KEY", true)
	if err != nil {
		t.Fatalf("SerializeServer() error = %v", err)
	}
	if *m.Sequence != 0 || !m.Prerendered() {
		t.Errorf("marker = %+v", m)
	}

	sc, err := rc.Protector().Unprotect(*m.Descriptor)
	if err != nil {
		t.Fatalf("Unprotect() error = %v", err)
	}
	if sc.ComponentType() != ct || !sc.Prerendered || sc.Key != "KEY" {
		t.Errorf("sealed = %+v", sc)
	}
	if sc.ExpiresAt.IsZero() {
		t.Error("descriptor should expire")
	}
}
