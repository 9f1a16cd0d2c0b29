package whispercpp

import (
	"path/filepath"
	"testing"
)

func TestNewRequiresModelPath(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, nil); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestNewMissingModelFile(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{ModelPath: filepath.Join(t.TempDir(), "ggml-none.bin")}, nil); err == nil {
		t.Fatalf("expected load error for missing model")
	}
}
