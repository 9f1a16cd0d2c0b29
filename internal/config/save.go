package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"hotmic/internal/domain"
)

var ErrHotkeyConflict = errors.New("toggle and push-to-talk hotkeys must differ")

// ValidateHotkeys rejects two set bindings with the same key and modifiers.
func ValidateHotkeys(h HotkeyConfig) error {
	if h.Toggle.IsSet() && h.PushToTalk.IsSet() && h.Toggle == h.PushToTalk {
		return ErrHotkeyConflict
	}
	return nil
}

// SetHotkey assigns binding to mode, refusing a conflicting combination.
func (c *Config) SetHotkey(mode domain.HotkeyMode, binding domain.HotkeyBinding) error {
	next := c.Hotkeys
	switch mode {
	case domain.ModeToggle:
		next.Toggle = binding
	case domain.ModePushToTalk:
		next.PushToTalk = binding
	default:
		return fmt.Errorf("unknown hotkey mode %q", mode)
	}
	if err := ValidateHotkeys(next); err != nil {
		return err
	}
	c.Hotkeys = next
	return nil
}

// Save writes the settings file atomically.
func Save(cfg Config) error {
	if cfg.Path == "" {
		return errors.New("config path is empty")
	}
	if err := ValidateHotkeys(cfg.Hotkeys); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp := cfg.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, cfg.Path)
}
