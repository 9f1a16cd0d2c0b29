package hotkey

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	gdhotkey "golang.design/x/hotkey"

	"hotmic/internal/domain"
)

type fakeGrab struct {
	down         chan gdhotkey.Event
	up           chan gdhotkey.Event
	mu           sync.Mutex
	unregistered bool
}

func newFakeGrab() *fakeGrab {
	return &fakeGrab{down: make(chan gdhotkey.Event), up: make(chan gdhotkey.Event)}
}

func (g *fakeGrab) Keydown() <-chan gdhotkey.Event { return g.down }
func (g *fakeGrab) Keyup() <-chan gdhotkey.Event   { return g.up }
func (g *fakeGrab) Unregister() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unregistered = true
	return nil
}

type recordingHandler struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHandler) HotkeyDown(mode domain.HotkeyMode) { h.add(string(mode) + ":down") }
func (h *recordingHandler) HotkeyUp(mode domain.HotkeyMode)   { h.add(string(mode) + ":up") }

func (h *recordingHandler) add(ev string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func TestListenerDispatchesModeTaggedEvents(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}
	grabs := map[int]*fakeGrab{}
	listener := NewListener(handler, log.New(io.Discard))
	listener.register = func(b domain.HotkeyBinding) (grab, error) {
		g := newFakeGrab()
		grabs[b.KeyCode] = g
		return g, nil
	}

	err := listener.Bind(map[domain.HotkeyMode]domain.HotkeyBinding{
		domain.ModeToggle:     {KeyCode: 1, Modifiers: domain.ModControl},
		domain.ModePushToTalk: {KeyCode: 2, Modifiers: domain.ModOption},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	grabs[1].down <- gdhotkey.Event{}
	grabs[2].down <- gdhotkey.Event{}
	grabs[2].up <- gdhotkey.Event{}

	deadline := time.Now().Add(2 * time.Second)
	for len(handler.snapshot()) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected three events, got %v", handler.snapshot())
		}
		time.Sleep(2 * time.Millisecond)
	}
	got := handler.snapshot()
	if got[0] != "toggle:down" || got[2] != "push_to_talk:up" {
		t.Fatalf("unexpected event order: %v", got)
	}

	listener.Close()
	for code, g := range grabs {
		if !g.unregistered {
			t.Fatalf("expected binding %d to be unregistered", code)
		}
	}
}

func TestListenerSkipsUnsetAndReportsFailures(t *testing.T) {
	t.Parallel()

	registered := 0
	listener := NewListener(&recordingHandler{}, log.New(io.Discard))
	listener.register = func(b domain.HotkeyBinding) (grab, error) {
		if b.KeyCode == 9 {
			return nil, errors.New("already grabbed")
		}
		registered++
		return newFakeGrab(), nil
	}

	err := listener.Bind(map[domain.HotkeyMode]domain.HotkeyBinding{
		domain.ModeToggle:     domain.UnsetBinding(),
		domain.ModePushToTalk: {KeyCode: 9},
	})
	if err == nil {
		t.Fatalf("expected registration error")
	}
	if registered != 0 {
		t.Fatalf("expected unset binding to be skipped, registered=%d", registered)
	}
	listener.Close()
}

func TestRebindReleasesPreviousRegistrations(t *testing.T) {
	t.Parallel()

	var grabs []*fakeGrab
	listener := NewListener(&recordingHandler{}, log.New(io.Discard))
	listener.register = func(domain.HotkeyBinding) (grab, error) {
		g := newFakeGrab()
		grabs = append(grabs, g)
		return g, nil
	}

	bindings := map[domain.HotkeyMode]domain.HotkeyBinding{domain.ModeToggle: {KeyCode: 3}}
	if err := listener.Bind(bindings); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := listener.Bind(bindings); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if !grabs[0].unregistered || grabs[1].unregistered {
		t.Fatalf("expected only the first registration to be released")
	}
	listener.Close()
}
