//go:build linux

package power

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	logindInterface = "org.freedesktop.login1.Manager"
)

// Watch follows logind PrepareForSleep signals until ctx is done. A delay
// inhibitor is held while awake so that Sleep runs before the suspend.
func Watch(ctx context.Context, handler Handler, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("power")

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("subscribe PrepareForSleep: %w", err)
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	manager := conn.Object(logindDest, logindPath)
	inhibit := func() *os.File {
		var fd dbus.UnixFD
		err := manager.CallWithContext(ctx, logindInterface+".Inhibit", 0,
			"sleep", "hotmic", "Discard the active recording", "delay").Store(&fd)
		if err != nil {
			logger.Warn("sleep inhibitor unavailable", "err", err)
			return nil
		}
		return os.NewFile(uintptr(fd), "logind-inhibitor")
	}

	lock := inhibit()
	defer func() {
		if lock != nil {
			lock.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			sleeping, ok := prepareForSleep(sig)
			if !ok {
				continue
			}
			if sleeping {
				logger.Info("system is going to sleep")
				handler.Sleep()
				if lock != nil {
					lock.Close()
					lock = nil
				}
				continue
			}
			logger.Info("system woke up")
			handler.Wake()
			if lock == nil {
				lock = inhibit()
			}
		}
	}
}

func prepareForSleep(sig *dbus.Signal) (bool, bool) {
	if sig == nil || sig.Name != logindInterface+".PrepareForSleep" || len(sig.Body) != 1 {
		return false, false
	}
	sleeping, ok := sig.Body[0].(bool)
	return sleeping, ok
}
