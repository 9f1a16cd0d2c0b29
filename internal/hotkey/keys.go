package hotkey

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	gdhotkey "golang.design/x/hotkey"

	"hotmic/internal/domain"
)

var ErrUnknownKey = errors.New("unknown key")

var keyNames = map[string]gdhotkey.Key{
	"space": gdhotkey.KeySpace, "return": gdhotkey.KeyReturn, "enter": gdhotkey.KeyReturn,
	"escape": gdhotkey.KeyEscape, "delete": gdhotkey.KeyDelete, "tab": gdhotkey.KeyTab,
	"left": gdhotkey.KeyLeft, "right": gdhotkey.KeyRight, "up": gdhotkey.KeyUp, "down": gdhotkey.KeyDown,

	"0": gdhotkey.Key0, "1": gdhotkey.Key1, "2": gdhotkey.Key2, "3": gdhotkey.Key3, "4": gdhotkey.Key4,
	"5": gdhotkey.Key5, "6": gdhotkey.Key6, "7": gdhotkey.Key7, "8": gdhotkey.Key8, "9": gdhotkey.Key9,

	"a": gdhotkey.KeyA, "b": gdhotkey.KeyB, "c": gdhotkey.KeyC, "d": gdhotkey.KeyD, "e": gdhotkey.KeyE,
	"f": gdhotkey.KeyF, "g": gdhotkey.KeyG, "h": gdhotkey.KeyH, "i": gdhotkey.KeyI, "j": gdhotkey.KeyJ,
	"k": gdhotkey.KeyK, "l": gdhotkey.KeyL, "m": gdhotkey.KeyM, "n": gdhotkey.KeyN, "o": gdhotkey.KeyO,
	"p": gdhotkey.KeyP, "q": gdhotkey.KeyQ, "r": gdhotkey.KeyR, "s": gdhotkey.KeyS, "t": gdhotkey.KeyT,
	"u": gdhotkey.KeyU, "v": gdhotkey.KeyV, "w": gdhotkey.KeyW, "x": gdhotkey.KeyX, "y": gdhotkey.KeyY,
	"z": gdhotkey.KeyZ,

	"f1": gdhotkey.KeyF1, "f2": gdhotkey.KeyF2, "f3": gdhotkey.KeyF3, "f4": gdhotkey.KeyF4,
	"f5": gdhotkey.KeyF5, "f6": gdhotkey.KeyF6, "f7": gdhotkey.KeyF7, "f8": gdhotkey.KeyF8,
	"f9": gdhotkey.KeyF9, "f10": gdhotkey.KeyF10, "f11": gdhotkey.KeyF11, "f12": gdhotkey.KeyF12,
}

var modifierNames = map[string]domain.ModifierMask{
	"ctrl": domain.ModControl, "control": domain.ModControl,
	"shift": domain.ModShift,
	"alt": domain.ModOption, "opt": domain.ModOption, "option": domain.ModOption,
	"cmd": domain.ModCommand, "command": domain.ModCommand, "super": domain.ModCommand, "win": domain.ModCommand,
}

// ParseBinding reads a combination such as "ctrl+shift+space". The last
// element names the key, the rest are modifiers.
func ParseBinding(combo string) (domain.HotkeyBinding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(combo)), "+")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return domain.UnsetBinding(), fmt.Errorf("%w: %q", ErrUnknownKey, combo)
	}

	var mods domain.ModifierMask
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierNames[strings.TrimSpace(part)]
		if !ok {
			return domain.UnsetBinding(), fmt.Errorf("unknown modifier %q", part)
		}
		mods |= mod
	}

	key, ok := keyNames[strings.TrimSpace(parts[len(parts)-1])]
	if !ok {
		return domain.UnsetBinding(), fmt.Errorf("%w: %q", ErrUnknownKey, parts[len(parts)-1])
	}
	return domain.HotkeyBinding{KeyCode: int(key), Modifiers: mods}, nil
}

// FormatBinding renders a binding in the form ParseBinding accepts.
func FormatBinding(b domain.HotkeyBinding) string {
	if !b.IsSet() {
		return "unset"
	}

	var parts []string
	for _, m := range []struct {
		mask domain.ModifierMask
		name string
	}{
		{domain.ModControl, "ctrl"},
		{domain.ModShift, "shift"},
		{domain.ModOption, "alt"},
		{domain.ModCommand, "cmd"},
	} {
		if b.Modifiers&m.mask != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, keyName(b.KeyCode)), "+")
}

func keyName(code int) string {
	var names []string
	for name, key := range keyNames {
		if int(key) == code {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("key%d", code)
	}
	// "enter" and "return" share a code; pick deterministically.
	sort.Strings(names)
	return names[len(names)-1]
}
