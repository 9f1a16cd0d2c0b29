package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	"hotmic/internal/domain"
)

// Config stores runtime configuration: built-in defaults, overlaid by the
// settings file, overlaid by HOTMIC_* environment variables.
type Config struct {
	Path string `toml:"-"`

	Engine   EngineConfig   `toml:"engine"`
	Fallback FallbackConfig `toml:"fallback"`
	Hotkeys  HotkeyConfig   `toml:"hotkeys"`
	Audio    AudioConfig    `toml:"audio"`
	Feedback FeedbackConfig `toml:"feedback"`
	Rules    RulesConfig    `toml:"rules"`
	Session  SessionConfig  `toml:"session"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Deepgram DeepgramConfig `toml:"deepgram"`
	Storage  StorageConfig  `toml:"storage"`
	Log      LogConfig      `toml:"log"`
}

type EngineConfig struct {
	Type          string `toml:"type"`
	Model         string `toml:"model"`
	CloudProvider string `toml:"cloud_provider"`
	Language      string `toml:"language"`
}

type FallbackConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

type HotkeyConfig struct {
	Toggle     domain.HotkeyBinding `toml:"toggle"`
	PushToTalk domain.HotkeyBinding `toml:"push_to_talk"`
}

type AudioConfig struct {
	Backend         string `toml:"backend"`
	RecorderCommand string `toml:"recorder_command"`
	InputFormat     string `toml:"input_format"`
	InputDevice     string `toml:"input_device"`
	SampleRate      int    `toml:"sample_rate"`
}

type FeedbackConfig struct {
	PlaySound         bool   `toml:"play_sound"`
	SoundFile         string `toml:"sound_file"`
	ShowNotifications bool   `toml:"show_notifications"`
}

type RulesConfig struct {
	Path           string `toml:"path"`
	IterationLimit int    `toml:"iteration_limit"`
}

type SessionConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	ChunkSize      int `toml:"chunk_size"`
}

type OpenAIConfig struct {
	BaseURL string `toml:"base_url"`
}

type DeepgramConfig struct {
	BaseURL     string `toml:"base_url"`
	SmartFormat bool   `toml:"smart_format"`
}

type StorageConfig struct {
	ModelsDir   string `toml:"models_dir"`
	HistoryPath string `toml:"history_path"`
	TempDir     string `toml:"temp_dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Dir returns the hotmic configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine home directory")
	}
	return filepath.Join(home, ".config", "hotmic"), nil
}

// DefaultPath is the settings file location, overridable with HOTMIC_CONFIG.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("HOTMIC_CONFIG")); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.toml"), nil
}

// Defaults returns the built-in configuration rooted at dir.
func Defaults(dir string) Config {
	return Config{
		Engine: EngineConfig{
			Type:          string(domain.EngineLocal),
			Model:         "base.en",
			CloudProvider: "openai",
			Language:      "auto",
		},
		Fallback: FallbackConfig{
			Enabled:  false,
			Provider: "openai",
			Model:    "whisper-1",
		},
		Hotkeys: HotkeyConfig{
			Toggle:     domain.UnsetBinding(),
			PushToTalk: domain.UnsetBinding(),
		},
		Audio: AudioConfig{
			Backend:         "portaudio",
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
		},
		Feedback: FeedbackConfig{
			PlaySound:         true,
			ShowNotifications: true,
		},
		Rules: RulesConfig{
			Path:           filepath.Join(dir, "substitutions.rules"),
			IterationLimit: 30,
		},
		Session: SessionConfig{
			TimeoutSeconds: 30,
			ChunkSize:      8192,
		},
		OpenAI: OpenAIConfig{},
		Deepgram: DeepgramConfig{
			BaseURL:     "https://api.deepgram.com/v1",
			SmartFormat: true,
		},
		Storage: StorageConfig{
			ModelsDir:   filepath.Join(dir, "models"),
			HistoryPath: filepath.Join(dir, "history.db"),
			TempDir:     filepath.Join(os.TempDir(), "hotmic"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "hotmic.log"),
		},
	}
}

// Load resolves configuration from the default settings file.
func Load() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile resolves configuration from path. A missing file yields defaults.
func LoadFile(path string) (Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := mergo.Merge(&cfg, envOverrides(), mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("apply environment overrides: %w", err)
	}
	applyEnvBools(&cfg)
	normalize(&cfg)

	if err := ValidateHotkeys(cfg.Hotkeys); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadFile returns defaults overlaid by the settings file only, which is
// what Save should write back. Hotkey conflicts are left for SetHotkey and
// Save to reject so that a conflicting file can still be repaired.
func ReadFile(path string) (Config, error) {
	cfg := Defaults(filepath.Dir(path))

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	cfg.Path = path
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.Engine.Type = strings.ToLower(strings.TrimSpace(cfg.Engine.Type))
	if cfg.Engine.Type != string(domain.EngineCloud) {
		cfg.Engine.Type = string(domain.EngineLocal)
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Session.TimeoutSeconds <= 0 {
		cfg.Session.TimeoutSeconds = 30
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 8192
	}
	if strings.TrimSpace(cfg.Engine.Language) == "" {
		cfg.Engine.Language = "auto"
	}
}

// Timeout is the transcription timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Session.TimeoutSeconds) * time.Second
}

// Preferences projects the settings the session controller consults.
func (c Config) Preferences() domain.Preferences {
	return domain.Preferences{
		Engine: domain.EngineSpec{
			Type:          domain.EngineType(c.Engine.Type),
			Model:         c.Engine.Model,
			CloudProvider: c.Engine.CloudProvider,
			Language:      c.Engine.Language,
		},
		FallbackToCloud:   c.Fallback.Enabled,
		FallbackProvider:  c.Fallback.Provider,
		FallbackModel:     c.Fallback.Model,
		PlaySound:         c.Feedback.PlaySound,
		ShowNotifications: c.Feedback.ShowNotifications,
		InputDevice:       c.Audio.InputDevice,
	}
}

// Bindings returns the hotkey bindings keyed by mode.
func (c Config) Bindings() map[domain.HotkeyMode]domain.HotkeyBinding {
	return map[domain.HotkeyMode]domain.HotkeyBinding{
		domain.ModeToggle:     c.Hotkeys.Toggle,
		domain.ModePushToTalk: c.Hotkeys.PushToTalk,
	}
}
