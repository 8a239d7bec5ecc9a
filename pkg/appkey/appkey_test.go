package appkey

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matchid-dev/appgate/pkg/errors"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-app-key", "foo")
	if got, err := FromRequest(r); err != nil || got != "foo" {
		t.Fatalf("got %q, %v", got, err)
	}

	// Header names are case-insensitive.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-APP-KEY", "bar")
	if got, err := FromRequest(r); err != nil || got != "bar" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestFromRequestMultiValued(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Add("x-app-key", "foo")
	r.Header.Add("x-app-key", "bar")
	if got, err := FromRequest(r); err != nil || got != "foo" {
		t.Fatalf("expected first value, got %q, %v", got, err)
	}
}

func TestFromRequestMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := FromRequest(r)
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	if !errors.IsMissingCredential(err) {
		t.Errorf("expected MissingCredentialError, got %v", err)
	}
	if err.Error() != errors.MissingCredentialGuidance {
		t.Errorf("message = %q, want the fixed guidance message", err.Error())
	}
}

func TestFromMetadataCaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		md   map[string][]string
		want string
	}{
		{"lowercase", map[string][]string{"x-app-key": {"k1"}}, "k1"},
		{"uppercase", map[string][]string{"X-APP-KEY": {"k2"}}, "k2"},
		{"canonical", map[string][]string{"X-App-Key": {"k3"}}, "k3"},
		{"multi", map[string][]string{"x-app-key": {"first", "second"}}, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMetadata(tt.md)
			if err != nil {
				t.Fatalf("FromMetadata: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromMetadataMissing(t *testing.T) {
	for _, md := range []map[string][]string{
		nil,
		{},
		{"authorization": {"Bearer tok"}},
		{"x-app-key": {}},
		{"x-app-key": {""}},
	} {
		if _, err := FromMetadata(md); !errors.IsMissingCredential(err) {
			t.Errorf("md %v: expected MissingCredentialError, got %v", md, err)
		}
	}
}

func TestRegistryContains(t *testing.T) {
	reg := NewRegistry([]string{"h31tx1inchlk6xku", "u7unpdh6ehtvrt4b"})

	for _, key := range []string{"h31tx1inchlk6xku", "u7unpdh6ehtvrt4b"} {
		if !reg.Contains(key) {
			t.Errorf("expected %q to be authorized", key)
		}
	}
	for _, key := range []string{"not-a-real-key", "", "H31TX1INCHLK6XKU", "h31tx1inchlk6xk"} {
		if reg.Contains(key) {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}

func TestRegistryValidate(t *testing.T) {
	reg := NewRegistry([]string{"h31tx1inchlk6xku"})

	if err := reg.Validate("h31tx1inchlk6xku"); err != nil {
		t.Errorf("expected nil for authorized key, got %v", err)
	}
	err := reg.Validate("bogus")
	if err == nil {
		t.Fatal("expected error for unauthorized key")
	}
	if !errors.IsInvalidCredential(err) {
		t.Errorf("expected InvalidCredentialError, got %v", err)
	}
	if errors.IsMissingCredential(err) {
		t.Error("invalid key must not read as missing credential")
	}
}

func TestRegistryEmpty(t *testing.T) {
	reg := NewRegistry(nil)
	if reg.Size() != 0 {
		t.Errorf("size = %d, want 0", reg.Size())
	}
	if reg.Contains("anything") {
		t.Error("empty registry must reject everything")
	}
}
