package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"hotmic/internal/bootstrap"
	"hotmic/internal/domain"
	"hotmic/internal/history"
)

const (
	eventState    = "hotmic:state"
	eventNotice   = "hotmic:notice"
	eventSettings = "hotmic:settings"
	eventFinal    = "hotmic:final"
	eventEngine   = "hotmic:engine"
)

// App is the Wails application root. It is the event sink and clipboard for
// the backend.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	services *bootstrap.Services
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a)
	if err != nil {
		a.bootErr = err
		a.Notify(domain.NoticeEngineFailed, err.Error())
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.services = services
	if err := services.Start(runCtx); err != nil {
		a.bootErr = err
		a.Notify(domain.NoticeEngineFailed, err.Error())
	}
}

func (a *App) shutdown(context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.services != nil {
		if err := a.services.Close(); err != nil {
			a.services.Logger.Warn("shutdown incomplete", "err", err)
		}
	}
}

// ToggleRecording acts like a press of the toggle hotkey.
func (a *App) ToggleRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Controller.HotkeyDown(domain.ModeToggle)
	a.services.Controller.HotkeyUp(domain.ModeToggle)
	return nil
}

// CancelRecording discards an in-progress recording.
func (a *App) CancelRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Controller.Cancel()
	return nil
}

// GetStatus returns the current controller status.
func (a *App) GetStatus() domain.Status {
	if a.services == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.Failed(a.bootErr.Error())}
		}
		return domain.Status{State: domain.Idle()}
	}
	return a.services.Controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if a.services == nil {
		return map[string]string{}
	}

	cfg := a.services.Settings.Config()
	return map[string]string{
		"engine":        cfg.Engine.Type,
		"model":         cfg.Engine.Model,
		"cloudProvider": cfg.Engine.CloudProvider,
		"language":      cfg.Engine.Language,
		"rulesFile":     cfg.Rules.Path,
		"audioBackend":  cfg.Audio.Backend,
		"audioInput":    cfg.Audio.InputDevice,
		"settingsFile":  cfg.Path,
	}
}

// RecentTranscripts lists the latest history entries, newest first.
func (a *App) RecentTranscripts(limit int) ([]history.Entry, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if a.services.History == nil {
		return nil, errors.New("transcription history is disabled")
	}
	return a.services.History.Recent(a.ctx, limit)
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// StateChanged emits recording lifecycle updates to the overlay.
func (a *App) StateChanged(state domain.RecordingState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]any{
		"phase":   string(state.Phase),
		"level":   state.Level,
		"elapsed": state.Elapsed.Milliseconds(),
		"reason":  string(reason),
		"message": stateMessage(state, reason),
	})
}

// Notify emits a transient notification.
func (a *App) Notify(notice domain.Notice, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotice, map[string]string{
		"notice":  string(notice),
		"message": noticeMessage(notice, detail),
		"detail":  detail,
	})
}

// OpenSettings brings the window forward on the requested settings pane.
func (a *App) OpenSettings(section domain.SettingsSection) {
	if a.ctx == nil {
		return
	}
	runtime.WindowShow(a.ctx)
	runtime.EventsEmit(a.ctx, eventSettings, map[string]string{"section": string(section)})
}

// FinalTranscript emits the finished transcript.
func (a *App) FinalTranscript(t domain.Transcript) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventFinal, t)
}

// EngineChanged emits engine readiness updates.
func (a *App) EngineChanged(spec domain.EngineSpec, initializing bool, ready bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventEngine, map[string]any{
		"engine":       spec,
		"initializing": initializing,
		"ready":        ready,
	})
}

func (a *App) GetText(context.Context) (string, error) {
	if a.ctx == nil {
		return "", errors.New("application is not started")
	}
	return runtime.ClipboardGetText(a.ctx)
}

func (a *App) SetText(_ context.Context, text string) error {
	if a.ctx == nil {
		return errors.New("application is not started")
	}
	return runtime.ClipboardSetText(a.ctx, text)
}

func stateMessage(state domain.RecordingState, reason domain.StateReason) string {
	if state.Phase == domain.PhaseError && state.Message != "" {
		return state.Message
	}
	switch reason {
	case domain.ReasonReady:
		return "Ready"
	case domain.ReasonRecordingStarted:
		return "Recording"
	case domain.ReasonTranscribing:
		return "Transcribing..."
	case domain.ReasonFallback:
		return "Retrying with cloud transcription..."
	case domain.ReasonTextInserted:
		return "Text inserted"
	case domain.ReasonTextCopied:
		return "Text copied to clipboard"
	case domain.ReasonNoTranscript:
		return "No speech detected"
	case domain.ReasonRecordingDiscarded:
		return "Recording discarded"
	case domain.ReasonSystemSleep:
		return "Recording discarded for system sleep"
	case domain.ReasonCaptureFailed:
		return "Microphone unavailable"
	case domain.ReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.ReasonInsertionFailed:
		return "Text could not be inserted"
	default:
		return ""
	}
}

func noticeMessage(notice domain.Notice, detail string) string {
	switch notice {
	case domain.NoticeEngineInitializing:
		return "Please wait, the transcription engine is loading"
	case domain.NoticeEngineNotReady:
		return "The transcription engine is not ready"
	case domain.NoticeModelMissing:
		return "Download a speech model to start dictating"
	case domain.NoticeCredentialMissing:
		return "Add an API key for the selected cloud provider"
	case domain.NoticeRecordingError:
		return "Recording failed"
	case domain.NoticeTranscriptionError:
		return "Transcription failed"
	case domain.NoticeFallbackInUse:
		return "Local transcription failed, using cloud fallback"
	case domain.NoticeEngineFailed:
		return "The transcription engine could not be loaded"
	case domain.NoticeMicrophoneDenied:
		return "Microphone access is required"
	case domain.NoticeAccessibilityDenied:
		return "Grant accessibility access to paste automatically"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
