package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"hotmic/internal/domain"
	"hotmic/internal/ports"
)

var (
	ErrNoActiveSession = errors.New("no active recording session")
	ErrAlreadyRunning  = errors.New("controller is already running")
)

const (
	defaultTranscriptionTimeout = 30 * time.Second
	defaultTickInterval         = 100 * time.Millisecond
	inboxSize                   = 64
)

// Config controls recording and dispatch behavior.
type Config struct {
	Audio                ports.AudioConfig
	TempDir              string
	TranscriptionTimeout time.Duration
	TickInterval         time.Duration
}

// Dependencies are the collaborators driven by the controller. History may be nil.
type Dependencies struct {
	Audio       ports.AudioCapture
	Engines     ports.EngineFactory
	Models      ports.ModelStore
	Credentials ports.CredentialStore
	Preferences ports.Preferences
	Inserter    ports.TextInserter
	Rules       ports.RulesEngine
	CancelKey   ports.KeyMonitor
	Sounds      ports.SoundPlayer
	History     ports.HistoryStore
	Events      ports.EventSink
	Logger      *log.Logger
}

// SessionController sequences hotkeys, capture and transcription. All state
// below the inbox is owned by the Run goroutine; other goroutines only post
// events.
type SessionController struct {
	deps      Dependencies
	cfg       Config
	logger    *log.Logger
	finalizer transcriptFinalizer

	inbox   chan any
	done    chan struct{}
	running atomic.Bool

	mu     sync.RWMutex
	status domain.Status

	state        domain.RecordingState
	session      *recordingSession
	keyDown      map[domain.HotkeyMode]bool
	engine       ports.Transcriber
	engineSpec   domain.EngineSpec
	initializing bool
	pending      *cycle
	retired      []ports.Transcriber
	cycleSeq     uint64
}

func NewSessionController(deps Dependencies, cfg Config) *SessionController {
	if cfg.TranscriptionTimeout <= 0 {
		cfg.TranscriptionTimeout = defaultTranscriptionTimeout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Join(os.TempDir(), "hotmic")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &SessionController{
		deps:      deps,
		cfg:       cfg,
		logger:    logger.WithPrefix("session"),
		finalizer: newTranscriptFinalizer(deps.Rules, deps.Inserter, deps.History, deps.Sounds, deps.Events, logger),
		inbox:     make(chan any, inboxSize),
		done:      make(chan struct{}),
		status:    domain.Status{State: domain.Idle()},
		state:     domain.Idle(),
		keyDown:   make(map[domain.HotkeyMode]bool),
	}
}

// HotkeyDown reports a key press from the binding for mode.
func (c *SessionController) HotkeyDown(mode domain.HotkeyMode) {
	c.post(hotkeyEvent{mode: mode, down: true})
}

// HotkeyUp reports a key release from the binding for mode.
func (c *SessionController) HotkeyUp(mode domain.HotkeyMode) {
	c.post(hotkeyEvent{mode: mode, down: false})
}

// Cancel discards an in-progress recording. It is a no-op in any other state.
func (c *SessionController) Cancel() {
	c.post(cancelEvent{})
}

// Sleep handles an imminent system suspend and returns once any recording
// has been discarded.
func (c *SessionController) Sleep() {
	handled := make(chan struct{})
	if !c.post(sleepEvent{handled: handled}) {
		return
	}
	select {
	case <-handled:
	case <-c.done:
	}
}

// Wake resets the capture subsystem after a system resume.
func (c *SessionController) Wake() {
	c.post(wakeEvent{})
}

// Reconfigure asks for the engine described by spec. Requests arriving while
// an initialization is in flight are dropped.
func (c *SessionController) Reconfigure(spec domain.EngineSpec) {
	c.post(reconfigureEvent{spec: spec})
}

// Status returns the latest published status.
func (c *SessionController) Status() domain.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Run processes events until ctx is cancelled.
func (c *SessionController) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.inbox:
			c.handle(ctx, ev)
		}
	}
}

func (c *SessionController) post(ev any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.inbox <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *SessionController) tryPost(ev any) {
	select {
	case c.inbox <- ev:
	default:
	}
}

func (c *SessionController) handle(ctx context.Context, ev any) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked", "event", fmt.Sprintf("%T", ev), "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch e := ev.(type) {
	case hotkeyEvent:
		c.onHotkey(ctx, e)
	case cancelEvent:
		if c.session != nil {
			c.discard(domain.ReasonRecordingDiscarded)
		}
	case sleepEvent:
		if c.session != nil {
			c.logger.Info("system going to sleep, discarding recording")
			c.discard(domain.ReasonSystemSleep)
		}
		close(e.handled)
	case wakeEvent:
		c.onWake()
	case tickEvent:
		if c.session == e.session {
			c.setState(domain.Recording(e.session.audio.Level(), time.Since(e.session.started)), domain.ReasonLevel)
		}
	case reconfigureEvent:
		c.onReconfigure(ctx, e.spec)
	case engineBuiltEvent:
		c.onEngineBuilt(e)
	case transcriptionDoneEvent:
		c.onTranscriptionDone(ctx, e)
	default:
		c.logger.Warn("unknown event", "type", fmt.Sprintf("%T", ev))
	}
}

func (c *SessionController) onHotkey(ctx context.Context, ev hotkeyEvent) {
	if ev.down {
		if c.keyDown[ev.mode] {
			return
		}
		c.keyDown[ev.mode] = true

		switch c.state.Phase {
		case domain.PhaseIdle, domain.PhaseError:
			c.startRecording(ctx, ev.mode)
		case domain.PhaseRecording:
			if ev.mode == domain.ModeToggle {
				c.stopRecording(ctx)
			}
		case domain.PhaseTranscribing:
			c.logger.Debug("hotkey ignored while transcribing", "mode", ev.mode)
		}
		return
	}

	if !c.keyDown[ev.mode] {
		c.logger.Debug("suppressed unmatched key-up", "mode", ev.mode)
		return
	}
	c.keyDown[ev.mode] = false

	if ev.mode == domain.ModePushToTalk && c.session != nil && c.session.mode == domain.ModePushToTalk {
		c.stopRecording(ctx)
	}
}

func (c *SessionController) startRecording(ctx context.Context, mode domain.HotkeyMode) {
	if c.state.Phase == domain.PhaseError {
		c.setState(domain.Idle(), domain.ReasonErrorAcknowledged)
	}

	prefs := c.deps.Preferences.Snapshot()
	if !c.ready(ctx, prefs) {
		return
	}

	if err := os.MkdirAll(c.cfg.TempDir, 0o700); err != nil {
		c.failCapture(fmt.Errorf("failed to create recording directory: %w", err), prefs)
		return
	}
	path := filepath.Join(c.cfg.TempDir, "recording-"+uuid.NewString()+".wav")

	audioCfg := c.cfg.Audio
	if prefs.InputDevice != "" {
		audioCfg.InputDevice = prefs.InputDevice
	}

	audioSession, err := c.deps.Audio.Start(ctx, audioCfg, path)
	if err != nil {
		c.removeFile(path)
		c.failCapture(err, prefs)
		return
	}

	session := newRecordingSession(mode, path, audioSession, time.Now())
	disarm, err := c.deps.CancelKey.Arm(c.Cancel)
	if err != nil {
		c.logger.Warn("cancel key monitor unavailable", "err", err)
	} else {
		session.disarm = disarm
	}
	session.startTicker(c.cfg.TickInterval, func() { c.tryPost(tickEvent{session: session}) })

	c.session = session
	c.logger.Info("recording started", "mode", mode, "path", path)
	c.setState(domain.Recording(0, 0), domain.ReasonRecordingStarted)
}

// ready runs the engine readiness gate. A failing check only notifies, except
// that a missing engine is rebuilt so the next press can succeed.
func (c *SessionController) ready(ctx context.Context, prefs domain.Preferences) bool {
	if c.initializing {
		c.deps.Events.Notify(domain.NoticeEngineInitializing, "Transcription engine is loading, please wait")
		return false
	}

	switch prefs.Engine.Type {
	case domain.EngineLocal:
		if !c.deps.Models.Present(prefs.Engine.Model) {
			c.deps.Events.Notify(domain.NoticeModelMissing, fmt.Sprintf("Model %q is not downloaded", prefs.Engine.Model))
			c.deps.Events.OpenSettings(domain.SettingsModels)
			return false
		}
	case domain.EngineCloud:
		if c.credential(prefs.Engine.CloudProvider) == "" {
			c.deps.Events.Notify(domain.NoticeCredentialMissing, fmt.Sprintf("No API key configured for %s", prefs.Engine.CloudProvider))
			c.deps.Events.OpenSettings(domain.SettingsCredentials)
			return false
		}
	}

	if c.engine == nil {
		c.deps.Events.Notify(domain.NoticeEngineNotReady, "Transcription engine is not ready")
		c.onReconfigure(ctx, prefs.Engine)
		return false
	}
	if c.engineSpec != prefs.Engine {
		c.logger.Warn("loaded engine differs from selected engine, reloading",
			"loaded", c.engineSpec.Type, "loadedModel", c.engineSpec.Model,
			"selected", prefs.Engine.Type, "selectedModel", prefs.Engine.Model)
		c.onReconfigure(ctx, prefs.Engine)
	}
	return true
}

func (c *SessionController) stopRecording(ctx context.Context) {
	session := c.session
	c.session = nil
	session.release()

	prefs := c.deps.Preferences.Snapshot()
	path, err := session.audio.Stop()
	if err != nil {
		c.removeFile(session.path)
		c.failCapture(err, prefs)
		return
	}

	c.cycleSeq++
	cy := &cycle{
		id:       c.cycleSeq,
		path:     path,
		engine:   c.engine,
		spec:     c.engineSpec,
		duration: time.Since(session.started),
	}
	c.pending = cy
	c.logger.Info("recording stopped", "duration", cy.duration, "engine", cy.spec.Type)
	c.setState(domain.Transcribing(), domain.ReasonTranscribing)

	engine := cy.engine
	timeout := c.cfg.TranscriptionTimeout
	go func() {
		text, err := c.runGuarded(func() (string, error) {
			return transcribeWithTimeout(ctx, engine, cy.path, timeout)
		})
		c.post(transcriptionDoneEvent{cycle: cy, text: text, err: err})
	}()
}

func (c *SessionController) dispatchFallback(ctx context.Context, cy *cycle, spec domain.EngineSpec) {
	timeout := c.cfg.TranscriptionTimeout
	go func() {
		text, err := c.runGuarded(func() (string, error) {
			if _, err := os.Stat(cy.path); err != nil {
				return "", domain.ErrNoAudioData
			}
			engine, err := c.deps.Engines.Build(ctx, spec)
			if err != nil {
				return "", err
			}
			defer engine.Close()
			return transcribeWithTimeout(ctx, engine, cy.path, timeout)
		})
		c.post(transcriptionDoneEvent{cycle: cy, text: text, err: err, fallback: true})
	}()
}

func (c *SessionController) onTranscriptionDone(ctx context.Context, ev transcriptionDoneEvent) {
	cy := ev.cycle
	if c.pending != cy {
		return
	}
	prefs := c.deps.Preferences.Snapshot()

	if ev.err == nil {
		c.completeCycle(cy)
		engineName := string(cy.spec.Type)
		if ev.fallback {
			engineName = prefs.FallbackProvider
		}
		transcript, reason := c.finalizer.Finalize(ctx, ev.text, domain.Transcript{
			Engine:   engineName,
			Fallback: ev.fallback,
			Duration: cy.duration,
		}, prefs)
		if transcript.Final != "" {
			c.setLastTranscription(transcript.Final)
		}
		c.setState(domain.Idle(), reason)
		return
	}

	c.logger.Error("transcription failed", "err", ev.err, "fallback", ev.fallback)
	if !ev.fallback && c.fallbackEligible(cy, prefs) {
		cy.fallbackTried = true
		if prefs.ShowNotifications {
			c.deps.Events.Notify(domain.NoticeFallbackInUse, "Local transcription failed, retrying with "+prefs.FallbackProvider)
		}
		c.deps.Events.StateChanged(c.state, domain.ReasonFallback)
		c.dispatchFallback(ctx, cy, prefs.FallbackSpec())
		return
	}

	c.completeCycle(cy)
	message := domain.UserMessage(ev.err)
	c.setState(domain.Failed(message), domain.ReasonTranscriptionFailed)
	if prefs.ShowNotifications {
		c.deps.Events.Notify(domain.NoticeTranscriptionError, message)
	}
}

func (c *SessionController) fallbackEligible(cy *cycle, prefs domain.Preferences) bool {
	if cy.fallbackTried || cy.spec.Type != domain.EngineLocal || !prefs.FallbackToCloud {
		return false
	}
	return c.credential(prefs.FallbackProvider) != ""
}

// completeCycle deletes the recording once no attempt can still need it.
func (c *SessionController) completeCycle(cy *cycle) {
	c.removeFile(cy.path)
	c.pending = nil
	for _, engine := range c.retired {
		c.closeEngine(engine)
	}
	c.retired = nil
}

func (c *SessionController) discard(reason domain.StateReason) {
	session := c.session
	c.session = nil
	session.release()
	session.audio.Cancel()
	c.removeFile(session.path)
	c.logger.Info("recording discarded", "reason", reason)
	c.setState(domain.Idle(), reason)
}

func (c *SessionController) failCapture(err error, prefs domain.Preferences) {
	c.logger.Error("audio capture failed", "err", err)
	if errors.Is(err, domain.ErrMicrophoneDenied) {
		c.deps.Events.Notify(domain.NoticeMicrophoneDenied, err.Error())
		c.deps.Events.OpenSettings(domain.SettingsPermissions)
		c.setState(domain.Idle(), domain.ReasonCaptureFailed)
		return
	}
	c.setState(domain.Failed(err.Error()), domain.ReasonCaptureFailed)
	if prefs.ShowNotifications {
		c.deps.Events.Notify(domain.NoticeRecordingError, err.Error())
	}
}

func (c *SessionController) onWake() {
	device := c.deps.Preferences.Snapshot().InputDevice
	if device == "" {
		device = c.cfg.Audio.InputDevice
	}
	if err := c.deps.Audio.Reset(device); err != nil {
		c.logger.Error("audio reset after wake failed", "device", device, "err", err)
		return
	}
	c.logger.Info("audio subsystem reset after wake", "device", device)
}

func (c *SessionController) onReconfigure(ctx context.Context, spec domain.EngineSpec) {
	if c.initializing {
		c.logger.Warn("engine initialization already in flight, request dropped", "type", spec.Type, "model", spec.Model)
		c.deps.Events.Notify(domain.NoticeEngineInitializing, "Transcription engine is still loading")
		return
	}
	if c.engine != nil && c.engineSpec == spec {
		return
	}

	c.initializing = true
	c.publishEngine()
	c.logger.Info("initializing engine", "type", spec.Type, "model", spec.Model, "provider", spec.CloudProvider)

	go func() {
		var engine ports.Transcriber
		_, err := c.runGuarded(func() (string, error) {
			built, err := c.deps.Engines.Build(ctx, spec)
			engine = built
			return "", err
		})
		if !c.post(engineBuiltEvent{spec: spec, engine: engine, err: err}) && engine != nil {
			_ = engine.Close()
		}
	}()
}

func (c *SessionController) onEngineBuilt(ev engineBuiltEvent) {
	c.initializing = false
	if ev.err != nil {
		c.logger.Error("engine initialization failed", "type", ev.spec.Type, "model", ev.spec.Model, "err", ev.err)
		c.deps.Events.Notify(domain.NoticeEngineFailed, ev.err.Error())
		c.publishEngine()
		return
	}

	previous := c.engine
	c.engine = ev.engine
	c.engineSpec = ev.spec
	if previous != nil {
		if c.pending != nil && c.pending.engine == previous {
			c.retired = append(c.retired, previous)
		} else {
			c.closeEngine(previous)
		}
	}
	c.logger.Info("engine ready", "name", ev.engine.Name())
	c.publishEngine()
}

func (c *SessionController) shutdown() {
	if c.session != nil {
		c.discard(domain.ReasonRecordingDiscarded)
	}
	if c.pending != nil {
		c.completeCycle(c.pending)
	}
	if c.engine != nil {
		c.closeEngine(c.engine)
		c.engine = nil
	}
}

// runGuarded converts a panic in background work into an error so the cycle
// still completes.
func (c *SessionController) runGuarded(fn func() (string, error)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("background task panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn()
}

func (c *SessionController) credential(provider string) string {
	if c.deps.Credentials == nil {
		return ""
	}
	key, err := c.deps.Credentials.Get(provider)
	if err != nil {
		c.logger.Debug("credential lookup failed", "provider", provider, "err", err)
		return ""
	}
	return key
}

func (c *SessionController) removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Error("failed to delete recording", "path", path, "err", err)
	}
}

func (c *SessionController) closeEngine(engine ports.Transcriber) {
	if err := engine.Close(); err != nil {
		c.logger.Warn("failed to close engine", "name", engine.Name(), "err", err)
	}
}

func (c *SessionController) setState(state domain.RecordingState, reason domain.StateReason) {
	c.state = state
	c.mu.Lock()
	c.status.State = state
	c.mu.Unlock()
	c.deps.Events.StateChanged(state, reason)
}

func (c *SessionController) setLastTranscription(text string) {
	c.mu.Lock()
	c.status.LastTranscription = text
	c.mu.Unlock()
}

func (c *SessionController) publishEngine() {
	c.mu.Lock()
	c.status.Initializing = c.initializing
	c.status.EngineReady = c.engine != nil
	c.status.Engine = c.engineSpec
	c.mu.Unlock()
	c.deps.Events.EngineChanged(c.engineSpec, c.initializing, c.engine != nil)
}
