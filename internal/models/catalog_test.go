package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorePresent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(dir)

	if store.Present("base.en") {
		t.Fatalf("expected missing model")
	}
	if err := os.WriteFile(filepath.Join(dir, "ggml-base.en.bin"), nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if store.Present("base.en") {
		t.Fatalf("expected empty file not to count")
	}
	if err := os.WriteFile(filepath.Join(dir, "ggml-base.en.bin"), []byte("ggml"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !store.Present("base.en") || !store.Present("ggml-base.en.bin") {
		t.Fatalf("expected model present")
	}
	if store.Present("") {
		t.Fatalf("expected empty name to be absent")
	}

	var found bool
	for _, s := range store.List() {
		if s.Name == "base.en" {
			found = s.Present
		} else if s.Present {
			t.Fatalf("unexpected present model %s", s.Name)
		}
	}
	if !found {
		t.Fatalf("expected base.en listed as present")
	}
}

func TestLookupAndURL(t *testing.T) {
	t.Parallel()

	m, ok := Lookup("small")
	if !ok {
		t.Fatalf("expected small in catalog")
	}
	if m.URL() != "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin" {
		t.Fatalf("unexpected url: %s", m.URL())
	}
	if _, ok := Lookup("huge"); ok {
		t.Fatalf("unexpected catalog entry")
	}
}
