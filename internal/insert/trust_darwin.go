//go:build darwin

package insert

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
*/
import "C"

func accessibilityTrusted() bool {
	return bool(C.AXIsProcessTrusted())
}
