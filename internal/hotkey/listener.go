// Package hotkey registers the global dictation shortcuts and the cancel
// key monitor.
package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	gdhotkey "golang.design/x/hotkey"

	"hotmic/internal/domain"
	"hotmic/internal/logging"
)

// Handler receives mode-tagged key transitions.
type Handler interface {
	HotkeyDown(mode domain.HotkeyMode)
	HotkeyUp(mode domain.HotkeyMode)
}

type grab interface {
	Keydown() <-chan gdhotkey.Event
	Keyup() <-chan gdhotkey.Event
	Unregister() error
}

type registration struct {
	mode    domain.HotkeyMode
	binding domain.HotkeyBinding
	grab    grab
	stop    chan struct{}
	done    chan struct{}
}

// Listener owns the OS registrations for every configured binding.
type Listener struct {
	handler  Handler
	register func(domain.HotkeyBinding) (grab, error)
	logger   *log.Logger

	mu   sync.Mutex
	regs []*registration
}

func NewListener(handler Handler, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		handler:  handler,
		register: registerOS,
		logger:   logger.WithPrefix("hotkey"),
	}
}

func registerOS(b domain.HotkeyBinding) (grab, error) {
	hk := gdhotkey.New(platformModifiers(b.Modifiers), gdhotkey.Key(b.KeyCode))
	if err := hk.Register(); err != nil {
		return nil, err
	}
	return hk, nil
}

// Bind replaces all registrations with bindings. Unset bindings are skipped.
// A binding that fails to register is reported but does not prevent the
// others from being bound.
func (l *Listener) Bind(bindings map[domain.HotkeyMode]domain.HotkeyBinding) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.unbindLocked()

	var errs []error
	for _, mode := range []domain.HotkeyMode{domain.ModeToggle, domain.ModePushToTalk} {
		binding, ok := bindings[mode]
		if !ok || !binding.IsSet() {
			continue
		}
		g, err := l.register(binding)
		if err != nil {
			errs = append(errs, fmt.Errorf("register %s hotkey %s: %w", mode, FormatBinding(binding), err))
			continue
		}
		reg := &registration{
			mode:    mode,
			binding: binding,
			grab:    g,
			stop:    make(chan struct{}),
			done:    make(chan struct{}),
		}
		l.regs = append(l.regs, reg)
		logging.Go(l.logger, "hotkey dispatch", func() { l.dispatch(reg) })
		l.logger.Info("hotkey registered", "mode", mode, "binding", FormatBinding(binding))
	}
	return errors.Join(errs...)
}

// Close unregisters everything.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unbindLocked()
}

func (l *Listener) unbindLocked() {
	for _, reg := range l.regs {
		close(reg.stop)
		<-reg.done
		if err := reg.grab.Unregister(); err != nil {
			l.logger.Warn("hotkey unregister failed", "mode", reg.mode, "err", err)
		}
	}
	l.regs = nil
}

func (l *Listener) dispatch(reg *registration) {
	defer close(reg.done)
	down := reg.grab.Keydown()
	up := reg.grab.Keyup()
	for {
		select {
		case <-reg.stop:
			return
		case _, ok := <-down:
			if !ok {
				return
			}
			l.handler.HotkeyDown(reg.mode)
		case _, ok := <-up:
			if !ok {
				return
			}
			l.handler.HotkeyUp(reg.mode)
		}
	}
}
