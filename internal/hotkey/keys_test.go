package hotkey

import (
	"errors"
	"testing"

	gdhotkey "golang.design/x/hotkey"

	"hotmic/internal/domain"
)

func TestParseBinding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		combo string
		want  domain.HotkeyBinding
	}{
		{"ctrl+shift+space", domain.HotkeyBinding{KeyCode: int(gdhotkey.KeySpace), Modifiers: domain.ModControl | domain.ModShift}},
		{"Cmd+Alt+D", domain.HotkeyBinding{KeyCode: int(gdhotkey.KeyD), Modifiers: domain.ModCommand | domain.ModOption}},
		{"f9", domain.HotkeyBinding{KeyCode: int(gdhotkey.KeyF9)}},
	}
	for _, tt := range tests {
		got, err := ParseBinding(tt.combo)
		if err != nil {
			t.Fatalf("%s: %v", tt.combo, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %+v, got %+v", tt.combo, tt.want, got)
		}
	}
}

func TestParseBindingRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := ParseBinding("ctrl+banana"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := ParseBinding("hyper+a"); err == nil {
		t.Fatalf("expected unknown modifier error")
	}
	if _, err := ParseBinding("ctrl+"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey for missing key, got %v", err)
	}
}

func TestFormatBindingRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := ParseBinding("shift+ctrl+space")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatBinding(b); got != "ctrl+shift+space" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := FormatBinding(domain.UnsetBinding()); got != "unset" {
		t.Fatalf("unexpected unset format %q", got)
	}
}
