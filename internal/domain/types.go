package domain

import "time"

// Phase identifies which RecordingState variant is active.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseError        Phase = "error"
)

// RecordingState is the dictation lifecycle. Level and Elapsed are only
// meaningful while recording, Message only in the error phase.
type RecordingState struct {
	Phase   Phase         `json:"phase"`
	Level   float64       `json:"level,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
	Message string        `json:"message,omitempty"`
}

func Idle() RecordingState { return RecordingState{Phase: PhaseIdle} }

func Recording(level float64, elapsed time.Duration) RecordingState {
	return RecordingState{Phase: PhaseRecording, Level: level, Elapsed: elapsed}
}

func Transcribing() RecordingState { return RecordingState{Phase: PhaseTranscribing} }

func Failed(message string) RecordingState {
	return RecordingState{Phase: PhaseError, Message: message}
}

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonReady               StateReason = "ready"
	ReasonRecordingStarted    StateReason = "recording_started"
	ReasonLevel               StateReason = "level"
	ReasonTranscribing        StateReason = "transcribing"
	ReasonFallback            StateReason = "fallback"
	ReasonTextInserted        StateReason = "text_inserted"
	ReasonTextCopied          StateReason = "text_copied"
	ReasonNoTranscript        StateReason = "no_transcript"
	ReasonRecordingDiscarded  StateReason = "recording_discarded"
	ReasonSystemSleep         StateReason = "system_sleep"
	ReasonCaptureFailed       StateReason = "capture_failed"
	ReasonTranscriptionFailed StateReason = "transcription_failed"
	ReasonInsertionFailed     StateReason = "insertion_failed"
	ReasonErrorAcknowledged   StateReason = "error_acknowledged"
)

// Notice identifies a transient user notification.
type Notice string

const (
	NoticeEngineInitializing  Notice = "engine_initializing"
	NoticeEngineNotReady      Notice = "engine_not_ready"
	NoticeModelMissing        Notice = "model_missing"
	NoticeCredentialMissing   Notice = "credential_missing"
	NoticeRecordingError      Notice = "recording_error"
	NoticeTranscriptionError  Notice = "transcription_error"
	NoticeFallbackInUse       Notice = "fallback_in_use"
	NoticeEngineFailed        Notice = "engine_failed"
	NoticeMicrophoneDenied    Notice = "microphone_denied"
	NoticeAccessibilityDenied Notice = "accessibility_denied"
)

// SettingsSection names the settings pane a prompt should open.
type SettingsSection string

const (
	SettingsModels      SettingsSection = "models"
	SettingsCredentials SettingsSection = "credentials"
	SettingsPermissions SettingsSection = "permissions"
)

// HotkeyMode tags which binding produced a key event.
type HotkeyMode string

const (
	ModeToggle     HotkeyMode = "toggle"
	ModePushToTalk HotkeyMode = "push_to_talk"
)

// ModifierMask is a platform-neutral modifier bitmask.
type ModifierMask uint32

const (
	ModControl ModifierMask = 1 << iota
	ModShift
	ModOption
	ModCommand
)

// UnsetKeyCode marks a binding that has not been configured. Every valid
// platform key code is non-negative.
const UnsetKeyCode = -1

// HotkeyBinding is a (keyCode, modifiers) pair bound to one HotkeyMode.
type HotkeyBinding struct {
	KeyCode   int          `toml:"key_code" json:"keyCode"`
	Modifiers ModifierMask `toml:"modifiers" json:"modifiers"`
}

func UnsetBinding() HotkeyBinding { return HotkeyBinding{KeyCode: UnsetKeyCode} }

func (b HotkeyBinding) IsSet() bool { return b.KeyCode >= 0 }

// EngineType selects the transcription backend family.
type EngineType string

const (
	EngineLocal EngineType = "local"
	EngineCloud EngineType = "cloud"
)

// EngineSpec is everything needed to build a Transcriber. Two equal specs
// produce interchangeable engines.
type EngineSpec struct {
	Type          EngineType `json:"type"`
	Model         string     `json:"model"`
	CloudProvider string     `json:"cloudProvider,omitempty"`
	Language      string     `json:"language,omitempty"`
}

// Preferences are the read-only user settings the controller consults.
type Preferences struct {
	Engine            EngineSpec
	FallbackToCloud   bool
	FallbackProvider  string
	FallbackModel     string
	PlaySound         bool
	ShowNotifications bool
	InputDevice       string
}

// FallbackSpec is the cloud engine used when a local transcription fails.
func (p Preferences) FallbackSpec() EngineSpec {
	return EngineSpec{
		Type:          EngineCloud,
		Model:         p.FallbackModel,
		CloudProvider: p.FallbackProvider,
		Language:      p.Engine.Language,
	}
}

// Status summarizes the controller for the UI.
type Status struct {
	State             RecordingState `json:"state"`
	Initializing      bool           `json:"initializing"`
	EngineReady       bool           `json:"engineReady"`
	Engine            EngineSpec     `json:"engine"`
	LastTranscription string         `json:"lastTranscription,omitempty"`
}

// Transcript is the outcome of one finished recording cycle.
type Transcript struct {
	Raw      string        `json:"raw"`
	Final    string        `json:"final"`
	Engine   string        `json:"engine"`
	Fallback bool          `json:"fallback"`
	Inserted bool          `json:"inserted"`
	Duration time.Duration `json:"duration"`
}
