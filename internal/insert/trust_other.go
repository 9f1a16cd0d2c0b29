//go:build !darwin

package insert

// Synthetic input needs no per-process grant outside macOS.
func accessibilityTrusted() bool {
	return true
}
