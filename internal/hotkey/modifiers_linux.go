//go:build linux

package hotkey

import (
	gdhotkey "golang.design/x/hotkey"

	"hotmic/internal/domain"
)

// X11 maps Alt to Mod1 and Super to Mod4 on common keymaps.
func platformModifiers(mask domain.ModifierMask) []gdhotkey.Modifier {
	var mods []gdhotkey.Modifier
	if mask&domain.ModControl != 0 {
		mods = append(mods, gdhotkey.ModCtrl)
	}
	if mask&domain.ModShift != 0 {
		mods = append(mods, gdhotkey.ModShift)
	}
	if mask&domain.ModOption != 0 {
		mods = append(mods, gdhotkey.Mod1)
	}
	if mask&domain.ModCommand != 0 {
		mods = append(mods, gdhotkey.Mod4)
	}
	return mods
}
