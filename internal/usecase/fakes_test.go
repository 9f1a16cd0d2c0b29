package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"hotmic/internal/domain"
	"hotmic/internal/ports"
)

type harness struct {
	controller *SessionController
	audio      *fakeAudioCapture
	engines    *fakeEngineFactory
	models     *fakeModels
	creds      *fakeCredentials
	prefs      *fakePreferences
	inserter   *fakeInserter
	monitor    *fakeKeyMonitor
	sounds     *fakeSounds
	history    *fakeHistory
	events     *fakeEventSink
	tempDir    string
	cancel     context.CancelFunc
	stopped    chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		audio:    &fakeAudioCapture{},
		engines:  newFakeEngineFactory(),
		models:   &fakeModels{present: true},
		creds:    &fakeCredentials{keys: map[string]string{}},
		prefs:    &fakePreferences{prefs: defaultTestPreferences()},
		inserter: &fakeInserter{inserted: true},
		monitor:  &fakeKeyMonitor{},
		sounds:   &fakeSounds{},
		history:  &fakeHistory{},
		events:   &fakeEventSink{},
		tempDir:  t.TempDir(),
		stopped:  make(chan struct{}),
	}
	h.controller = NewSessionController(Dependencies{
		Audio:       h.audio,
		Engines:     h.engines,
		Models:      h.models,
		Credentials: h.creds,
		Preferences: h.prefs,
		Inserter:    h.inserter,
		Rules:       &fakeRules{},
		CancelKey:   h.monitor,
		Sounds:      h.sounds,
		History:     h.history,
		Events:      h.events,
		Logger:      log.New(io.Discard),
	}, Config{
		Audio:                ports.AudioConfig{SampleRate: 16000},
		TempDir:              h.tempDir,
		TranscriptionTimeout: 2 * time.Second,
		TickInterval:         5 * time.Millisecond,
	})
	return h
}

// run starts the event loop without loading an engine.
func (h *harness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.stopped)
		_ = h.controller.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-h.stopped
	})
}

// start runs the event loop and waits until the preferred engine is loaded.
func (h *harness) start(t *testing.T) {
	t.Helper()
	h.run(t)
	h.controller.Reconfigure(h.prefs.Snapshot().Engine)
	waitFor(t, "engine ready", func() bool {
		s := h.controller.Status()
		return s.EngineReady && !s.Initializing
	})
}

func (h *harness) waitPhase(t *testing.T, phase domain.Phase) {
	t.Helper()
	waitFor(t, "phase "+string(phase), func() bool {
		return h.controller.Status().State.Phase == phase
	})
}

func (h *harness) recordings(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func defaultTestPreferences() domain.Preferences {
	return domain.Preferences{
		Engine:            domain.EngineSpec{Type: domain.EngineLocal, Model: "base.en"},
		FallbackProvider:  "openai",
		FallbackModel:     "whisper-1",
		PlaySound:         true,
		ShowNotifications: true,
	}
}

type fakeAudioCapture struct {
	mu       sync.Mutex
	err      error
	stopErr  error
	starts   int
	resets   []string
	sessions []*fakeAudioSession
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig, path string) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		return nil, err
	}
	f.starts++
	session := &fakeAudioSession{path: path, stopErr: f.stopErr}
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeAudioCapture) Reset(device string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, device)
	return nil
}

func (f *fakeAudioCapture) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeAudioCapture) last() *fakeAudioSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

type fakeAudioSession struct {
	path    string
	stopErr error
	stops   atomic.Int32
	cancels atomic.Int32
}

func (f *fakeAudioSession) Level() float64 { return 0.5 }

func (f *fakeAudioSession) Stop() (string, error) {
	f.stops.Add(1)
	if f.stopErr != nil {
		return "", f.stopErr
	}
	return f.path, nil
}

func (f *fakeAudioSession) Cancel() { f.cancels.Add(1) }

type transcribeFunc func(ctx context.Context, path string) (string, error)

type fakeTranscriber struct {
	name       string
	transcribe transcribeFunc
	calls      atomic.Int32
	closed     atomic.Bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f.calls.Add(1)
	if f.transcribe == nil {
		return "", nil
	}
	return f.transcribe(ctx, path)
}

func (f *fakeTranscriber) Name() string { return f.name }

func (f *fakeTranscriber) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeEngineFactory struct {
	mu          sync.Mutex
	local       transcribeFunc
	cloud       transcribeFunc
	buildErr    error
	gate        chan struct{}
	builds      map[domain.EngineType]int
	built       []*fakeTranscriber
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeEngineFactory() *fakeEngineFactory {
	return &fakeEngineFactory{builds: map[domain.EngineType]int{}}
}

func (f *fakeEngineFactory) Build(_ context.Context, spec domain.EngineSpec) (ports.Transcriber, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	gate := f.gate
	f.builds[spec.Type]++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	engine := &fakeTranscriber{name: string(spec.Type) + ":" + spec.Model, transcribe: f.local}
	if spec.Type == domain.EngineCloud {
		engine.transcribe = f.cloud
	}
	f.built = append(f.built, engine)
	return engine, nil
}

func (f *fakeEngineFactory) setLocal(fn transcribeFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.local = fn
}

func (f *fakeEngineFactory) setCloud(fn transcribeFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cloud = fn
}

func (f *fakeEngineFactory) buildCount(engine domain.EngineType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds[engine]
}

func (f *fakeEngineFactory) engines() []*fakeTranscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeTranscriber, len(f.built))
	copy(out, f.built)
	return out
}

type fakeModels struct {
	mu      sync.Mutex
	present bool
}

func (f *fakeModels) Present(string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present
}

type fakeCredentials struct {
	mu   sync.Mutex
	keys map[string]string
}

func (f *fakeCredentials) Get(provider string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[provider]
	if !ok {
		return "", errors.New("not found")
	}
	return key, nil
}

func (f *fakeCredentials) set(provider, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[provider] = key
}

type fakePreferences struct {
	mu    sync.Mutex
	prefs domain.Preferences
}

func (f *fakePreferences) Snapshot() domain.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs
}

func (f *fakePreferences) update(fn func(*domain.Preferences)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.prefs)
}

type fakeInserter struct {
	mu       sync.Mutex
	inserted bool
	err      error
	texts    []string
}

func (f *fakeInserter) Insert(_ context.Context, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.inserted, f.err
}

func (f *fakeInserter) inserts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}

type fakeKeyMonitor struct {
	mu      sync.Mutex
	armed   int
	disarms int
	onPress func()
	err     error
}

func (f *fakeKeyMonitor) Arm(onPress func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.armed++
	f.onPress = onPress
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.disarms++
		f.onPress = nil
	}, nil
}

func (f *fakeKeyMonitor) press() {
	f.mu.Lock()
	onPress := f.onPress
	f.mu.Unlock()
	if onPress != nil {
		onPress()
	}
}

func (f *fakeKeyMonitor) counts() (armed int, disarmed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.armed, f.disarms
}

type fakeSounds struct {
	plays atomic.Int32
}

func (f *fakeSounds) PlayCompletion() { f.plays.Add(1) }

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.Transcript
}

func (f *fakeHistory) Record(_ context.Context, transcript domain.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, transcript)
	return nil
}

type fakeRules struct {
	transform string
	err       error
}

func (f *fakeRules) Apply(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.transform != "" {
		return f.transform, nil
	}
	return text, nil
}

type stateEvent struct {
	state  domain.RecordingState
	reason domain.StateReason
}

type noticeEvent struct {
	notice domain.Notice
	detail string
}

type fakeEventSink struct {
	mu sync.Mutex

	states   []stateEvent
	notices  []noticeEvent
	settings []domain.SettingsSection
	finals   []domain.Transcript
}

func (f *fakeEventSink) StateChanged(state domain.RecordingState, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) Notify(notice domain.Notice, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, noticeEvent{notice: notice, detail: detail})
}

func (f *fakeEventSink) OpenSettings(section domain.SettingsSection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, section)
}

func (f *fakeEventSink) FinalTranscript(transcript domain.Transcript) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finals = append(f.finals, transcript)
}

func (f *fakeEventSink) EngineChanged(domain.EngineSpec, bool, bool) {}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) hasNotice(notice domain.Notice) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notices {
		if n.notice == notice {
			return true
		}
	}
	return false
}

func (f *fakeEventSink) openedSettings() []domain.SettingsSection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SettingsSection, len(f.settings))
	copy(out, f.settings)
	return out
}

// phases returns the sequence of distinct phases, collapsing level ticks.
func (f *fakeEventSink) phases() []domain.Phase {
	var out []domain.Phase
	for _, s := range f.snapshotStates() {
		if len(out) > 0 && out[len(out)-1] == s.state.Phase {
			continue
		}
		out = append(out, s.state.Phase)
	}
	return out
}
