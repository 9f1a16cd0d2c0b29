package usecase

import (
	"sync"
	"time"

	"hotmic/internal/domain"
	"hotmic/internal/ports"
)

// recordingSession lives from entering Recording until leaving it by any path.
type recordingSession struct {
	mode    domain.HotkeyMode
	path    string
	audio   ports.AudioSession
	started time.Time

	disarm   func()
	tickStop chan struct{}
	tickDone chan struct{}
	stopOnce sync.Once
}

func newRecordingSession(mode domain.HotkeyMode, path string, audio ports.AudioSession, started time.Time) *recordingSession {
	return &recordingSession{
		mode:    mode,
		path:    path,
		audio:   audio,
		started: started,
		disarm:  func() {},
	}
}

func (s *recordingSession) startTicker(interval time.Duration, tick func()) {
	s.tickStop = make(chan struct{})
	s.tickDone = make(chan struct{})
	go func() {
		defer close(s.tickDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.tickStop:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
}

// release stops the ticker and removes the cancel-key monitor.
func (s *recordingSession) release() {
	s.stopOnce.Do(func() {
		if s.tickStop != nil {
			close(s.tickStop)
			<-s.tickDone
		}
		s.disarm()
	})
}

// cycle is one Transcribing phase, covering the primary attempt and at most
// one fallback attempt.
type cycle struct {
	id       uint64
	path     string
	engine   ports.Transcriber
	spec     domain.EngineSpec
	duration time.Duration

	fallbackTried bool
}
