package main

import (
	"context"
	"errors"
	"testing"

	"hotmic/internal/domain"
)

func TestStateMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.StateReason]string{
		domain.ReasonRecordingStarted:    "Recording",
		domain.ReasonTranscribing:        "Transcribing...",
		domain.ReasonFallback:            "Retrying with cloud transcription...",
		domain.ReasonTextInserted:        "Text inserted",
		domain.ReasonTextCopied:          "Text copied to clipboard",
		domain.ReasonNoTranscript:        "No speech detected",
		domain.ReasonRecordingDiscarded:  "Recording discarded",
		domain.ReasonSystemSleep:         "Recording discarded for system sleep",
		domain.ReasonTranscriptionFailed: "Transcription failed",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := stateMessage(domain.Idle(), reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := stateMessage(domain.Failed("bad key"), domain.ReasonTranscriptionFailed); got != "bad key" {
		t.Fatalf("expected error message to win, got %q", got)
	}
	if got := stateMessage(domain.Idle(), "unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestNoticeMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.Notice]string{
		domain.NoticeEngineInitializing:  "Please wait, the transcription engine is loading",
		domain.NoticeModelMissing:        "Download a speech model to start dictating",
		domain.NoticeCredentialMissing:   "Add an API key for the selected cloud provider",
		domain.NoticeMicrophoneDenied:    "Microphone access is required",
		domain.NoticeAccessibilityDenied: "Grant accessibility access to paste automatically",
	}
	for notice, want := range cases {
		notice := notice
		want := want
		t.Run(string(notice), func(t *testing.T) {
			t.Parallel()
			if got := noticeMessage(notice, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := noticeMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := noticeMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}
	if err := app.ToggleRecording(); err == nil {
		t.Fatalf("expected toggle to fail before startup")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	if status := app.GetStatus(); status.State.Phase != domain.PhaseIdle {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	status := app.GetStatus()
	if status.State.Phase != domain.PhaseError || status.State.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
	if info := app.GetRuntimeInfo(); info["error"] != "boot" {
		t.Fatalf("unexpected runtime info: %v", info)
	}
}

func TestEventSinkBeforeStartupIsSilent(t *testing.T) {
	t.Parallel()

	app := &App{}
	app.StateChanged(domain.Idle(), domain.ReasonReady)
	app.Notify(domain.NoticeEngineNotReady, "")
	app.OpenSettings(domain.SettingsModels)
	app.FinalTranscript(domain.Transcript{Final: "x"})
	app.EngineChanged(domain.EngineSpec{}, false, false)

	if _, err := app.GetText(context.Background()); err == nil {
		t.Fatalf("expected clipboard read to fail before startup")
	}
	if err := app.SetText(context.Background(), "x"); err == nil {
		t.Fatalf("expected clipboard write to fail before startup")
	}
}
