package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestWatcherReloadsAndRejectsConflicts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[engine]\nmodel = \"tiny\"\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	reloads := make(chan Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg Config) { reloads <- cfg }, log.New(io.Discard))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[engine]\nmodel = \"small\"\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case cfg := <-reloads:
		if cfg.Engine.Model != "small" {
			t.Fatalf("unexpected reloaded model %q", cfg.Engine.Model)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected reload")
	}

	conflict := "[hotkeys.toggle]\nkey_code = 1\n[hotkeys.push_to_talk]\nkey_code = 1\n"
	if err := os.WriteFile(path, []byte(conflict), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case cfg := <-reloads:
		t.Fatalf("conflicting settings must be rejected, got %+v", cfg.Hotkeys)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSettingsReplace(t *testing.T) {
	t.Parallel()

	first := Defaults(t.TempDir())
	settings := NewSettings(first)
	if settings.Snapshot().Engine.Model != "base.en" {
		t.Fatalf("unexpected snapshot")
	}

	second := first
	second.Engine.Model = "large-v3"
	prev := settings.Replace(second)
	if prev.Engine.Model != "base.en" || settings.Snapshot().Engine.Model != "large-v3" {
		t.Fatalf("unexpected replace result")
	}
}
