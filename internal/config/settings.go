package config

import (
	"sync"

	"hotmic/internal/domain"
)

// Settings holds the live configuration and serves preference snapshots.
type Settings struct {
	mu  sync.RWMutex
	cfg Config
}

func NewSettings(cfg Config) *Settings {
	return &Settings{cfg: cfg}
}

func (s *Settings) Snapshot() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Preferences()
}

func (s *Settings) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace swaps in cfg and returns the previous configuration.
func (s *Settings) Replace(cfg Config) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cfg
	s.cfg = cfg
	return prev
}
