//go:build !linux && !darwin

package power

import (
	"context"

	"github.com/charmbracelet/log"
)

// Watch has no notification source on this platform and waits for ctx.
func Watch(ctx context.Context, _ Handler, logger *log.Logger) error {
	if logger != nil {
		logger.Debug("sleep notifications unsupported on this platform")
	}
	<-ctx.Done()
	return nil
}
