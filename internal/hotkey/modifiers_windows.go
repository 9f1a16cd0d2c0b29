//go:build windows

package hotkey

import (
	gdhotkey "golang.design/x/hotkey"

	"hotmic/internal/domain"
)

func platformModifiers(mask domain.ModifierMask) []gdhotkey.Modifier {
	var mods []gdhotkey.Modifier
	if mask&domain.ModControl != 0 {
		mods = append(mods, gdhotkey.ModCtrl)
	}
	if mask&domain.ModShift != 0 {
		mods = append(mods, gdhotkey.ModShift)
	}
	if mask&domain.ModOption != 0 {
		mods = append(mods, gdhotkey.ModAlt)
	}
	if mask&domain.ModCommand != 0 {
		mods = append(mods, gdhotkey.ModWin)
	}
	return mods
}
