//go:build darwin

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
		mods = append(mods, gdhotkey.ModOption)
	}
	if mask&domain.ModCommand != 0 {
		mods = append(mods, gdhotkey.ModCmd)
	}
	return mods
}
