package usecase

import (
	"hotmic/internal/domain"
	"hotmic/internal/ports"
)

type hotkeyEvent struct {
	mode domain.HotkeyMode
	down bool
}

type cancelEvent struct{}

type sleepEvent struct {
	handled chan struct{}
}

type wakeEvent struct{}

type tickEvent struct {
	session *recordingSession
}

type reconfigureEvent struct {
	spec domain.EngineSpec
}

type engineBuiltEvent struct {
	spec   domain.EngineSpec
	engine ports.Transcriber
	err    error
}

type transcriptionDoneEvent struct {
	cycle    *cycle
	text     string
	err      error
	fallback bool
}
