//go:build darwin

package power

import (
	"context"

	"github.com/charmbracelet/log"
	notifier "github.com/prashantgupta24/mac-sleep-notifier/notifier"
)

// Watch follows IOKit power notifications until ctx is done.
func Watch(ctx context.Context, handler Handler, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("power")

	instance := notifier.GetInstance()
	activities := instance.Start()
	defer instance.Quit()

	for {
		select {
		case <-ctx.Done():
			return nil
		case activity, ok := <-activities:
			if !ok {
				return nil
			}
			switch activity.Type {
			case notifier.Sleep:
				logger.Info("system is going to sleep")
				handler.Sleep()
			case notifier.Awake:
				logger.Info("system woke up")
				handler.Wake()
			}
		}
	}
}
