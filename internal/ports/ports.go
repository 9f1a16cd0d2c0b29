package ports

import (
	"context"
	"io"

	"hotmic/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture writing a WAV file.
type AudioSession interface {
	// Level is the latest normalized amplitude in [0,1].
	Level() float64
	// Stop finalizes the file and returns its path.
	Stop() (string, error)
	// Cancel aborts capture. Safe to call at any time.
	Cancel()
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig, path string) (AudioSession, error)
	// Reset drops any cached device handles and rebinds to device.
	Reset(device string) error
}

// Transcriber turns a finished recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Name() string
	io.Closer
}

// EngineFactory builds transcribers. Build may be slow (model loading).
type EngineFactory interface {
	Build(ctx context.Context, spec domain.EngineSpec) (Transcriber, error)
}

// ModelStore answers whether a local model is available on disk.
type ModelStore interface {
	Present(model string) bool
}

// CredentialStore reads cloud API credentials from the OS secure store.
type CredentialStore interface {
	Get(provider string) (string, error)
}

// Preferences exposes the current read-only user settings.
type Preferences interface {
	Snapshot() domain.Preferences
}

// TextInserter places text at the OS cursor. It reports false when only the
// clipboard could be updated.
type TextInserter interface {
	Insert(ctx context.Context, text string) (bool, error)
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	GetText(ctx context.Context) (string, error)
	SetText(ctx context.Context, text string) error
}

// KeyMonitor watches a single global key while armed. Arm returns the
// function that disarms it.
type KeyMonitor interface {
	Arm(onPress func()) (disarm func(), err error)
}

// SoundPlayer plays the completion cue.
type SoundPlayer interface {
	PlayCompletion()
}

// HistoryStore records finished transcriptions.
type HistoryStore interface {
	Record(ctx context.Context, transcript domain.Transcript) error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	StateChanged(state domain.RecordingState, reason domain.StateReason)
	Notify(notice domain.Notice, detail string)
	OpenSettings(section domain.SettingsSection)
	FinalTranscript(transcript domain.Transcript)
	EngineChanged(spec domain.EngineSpec, initializing bool, ready bool)
}
