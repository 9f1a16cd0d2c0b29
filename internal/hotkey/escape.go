package hotkey

import (
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	hook "github.com/robotn/gohook"

	"hotmic/internal/logging"
)

// EscapeMonitor watches the Escape key through a low-level keyboard hook.
// Only one hook can be live per process, so arming twice reuses the first.
type EscapeMonitor struct {
	start   func() chan hook.Event
	end     func()
	rawcode uint16
	logger  *log.Logger

	mu    sync.Mutex
	armed bool
}

func NewEscapeMonitor(logger *log.Logger) *EscapeMonitor {
	if logger == nil {
		logger = log.Default()
	}
	return &EscapeMonitor{
		start:   hook.Start,
		end:     hook.End,
		rawcode: escapeRawcode(runtime.GOOS),
		logger:  logger.WithPrefix("escape"),
	}
}

func escapeRawcode(goos string) uint16 {
	switch goos {
	case "darwin":
		return 53
	case "windows":
		return 27
	default:
		return 65307
	}
}

// Arm calls onPress at most once for the first Escape press seen before
// disarm is called. Disarm does not wait for an onPress call in progress.
func (m *EscapeMonitor) Arm(onPress func()) (func(), error) {
	m.mu.Lock()
	if m.armed {
		m.mu.Unlock()
		return func() {}, nil
	}
	m.armed = true
	m.mu.Unlock()

	events := m.start()
	stop := make(chan struct{})
	var fired sync.Once

	logging.Go(m.logger, "escape monitor", func() {
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if (ev.Kind == hook.KeyHold || ev.Kind == hook.KeyDown) && ev.Rawcode == m.rawcode {
					fired.Do(onPress)
				}
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			m.end()
			m.mu.Lock()
			m.armed = false
			m.mu.Unlock()
		})
	}, nil
}
