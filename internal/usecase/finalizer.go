package usecase

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"hotmic/internal/domain"
	"hotmic/internal/ports"
)

type transcriptFinalizer struct {
	rules    ports.RulesEngine
	inserter ports.TextInserter
	history  ports.HistoryStore
	sounds   ports.SoundPlayer
	events   ports.EventSink
	logger   *log.Logger
}

func newTranscriptFinalizer(
	rules ports.RulesEngine,
	inserter ports.TextInserter,
	history ports.HistoryStore,
	sounds ports.SoundPlayer,
	events ports.EventSink,
	logger *log.Logger,
) transcriptFinalizer {
	return transcriptFinalizer{
		rules:    rules,
		inserter: inserter,
		history:  history,
		sounds:   sounds,
		events:   events,
		logger:   logger.WithPrefix("finalize"),
	}
}

// Finalize applies rules to raw and inserts the result. Empty text is never
// inserted and never plays the completion sound.
func (f transcriptFinalizer) Finalize(ctx context.Context, raw string, meta domain.Transcript, prefs domain.Preferences) (domain.Transcript, domain.StateReason) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		f.logger.Info("transcription returned no text")
		return meta, domain.ReasonNoTranscript
	}

	final := raw
	if f.rules != nil {
		transformed, err := f.rules.Apply(raw)
		if err != nil {
			f.logger.Warn("rules failed, using raw transcript", "err", err)
		} else {
			final = strings.TrimSpace(transformed)
		}
	}
	if final == "" {
		return meta, domain.ReasonNoTranscript
	}

	meta.Raw = raw
	meta.Final = final

	inserted, err := f.inserter.Insert(ctx, final)
	if err != nil {
		f.logger.Error("text insertion failed", "err", err)
		f.events.FinalTranscript(meta)
		return meta, domain.ReasonInsertionFailed
	}
	meta.Inserted = inserted

	reason := domain.ReasonTextInserted
	if !inserted {
		reason = domain.ReasonTextCopied
		f.events.Notify(domain.NoticeAccessibilityDenied, "Accessibility permission is required to paste; the text was copied to the clipboard")
	}

	if prefs.PlaySound && f.sounds != nil {
		f.sounds.PlayCompletion()
	}
	if f.history != nil {
		if err := f.history.Record(ctx, meta); err != nil {
			f.logger.Warn("failed to record history", "err", err)
		}
	}
	f.events.FinalTranscript(meta)
	return meta, reason
}
