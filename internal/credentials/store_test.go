package credentials

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

// The keyring mock is process-global, so these tests do not run in parallel.

func TestStoreSetGetDelete(t *testing.T) {
	keyring.MockInit()
	store := &Store{service: Service, getenv: func(string) string { return "" }}

	if _, err := store.Get("openai"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set("openai", "  sk-test "); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get("openai")
	if err != nil || got != "sk-test" {
		t.Fatalf("unexpected get: %q, %v", got, err)
	}
	if err := store.Delete("openai"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete("openai"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := store.Get("openai"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreFallsBackToEnvironment(t *testing.T) {
	keyring.MockInit()
	store := &Store{service: Service, getenv: func(name string) string {
		if name == "DEEPGRAM_API_KEY" {
			return "dg-env"
		}
		return ""
	}}

	got, err := store.Get("deepgram")
	if err != nil || got != "dg-env" {
		t.Fatalf("unexpected get: %q, %v", got, err)
	}

	if err := store.Set("deepgram", "dg-keychain"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := store.Get("deepgram"); got != "dg-keychain" {
		t.Fatalf("expected keychain to take precedence, got %q", got)
	}
}

func TestStoreKeyringFailure(t *testing.T) {
	keyring.MockInitWithError(errors.New("keychain locked"))
	store := &Store{service: Service, getenv: func(string) string { return "env" }}

	if _, err := store.Get("openai"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected keychain error, got %v", err)
	}
}

func TestStoreRejectsUnknownProvider(t *testing.T) {
	keyring.MockInit()
	store := New()

	if _, err := store.Get("acme"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if err := store.Set("acme", "k"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if err := store.Set("openai", " "); err == nil {
		t.Fatalf("expected empty credential error")
	}
}
