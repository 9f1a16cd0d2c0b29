package config

import (
	"os"
	"strconv"
	"strings"
)

// envOverrides collects HOTMIC_* values. Unset variables stay zero so the
// merge leaves the underlying value alone.
func envOverrides() Config {
	return Config{
		Engine: EngineConfig{
			Type:          env("HOTMIC_ENGINE"),
			Model:         env("HOTMIC_MODEL"),
			CloudProvider: env("HOTMIC_CLOUD_PROVIDER"),
			Language:      env("HOTMIC_LANGUAGE"),
		},
		Fallback: FallbackConfig{
			Provider: env("HOTMIC_FALLBACK_PROVIDER"),
			Model:    env("HOTMIC_FALLBACK_MODEL"),
		},
		Audio: AudioConfig{
			Backend:         env("HOTMIC_AUDIO_BACKEND"),
			RecorderCommand: env("HOTMIC_FFMPEG_COMMAND"),
			InputFormat:     env("HOTMIC_AUDIO_INPUT_FORMAT"),
			InputDevice:     env("HOTMIC_AUDIO_INPUT_DEVICE"),
			SampleRate:      envOrDefaultInt("HOTMIC_SAMPLE_RATE", 0),
		},
		Feedback: FeedbackConfig{
			SoundFile: env("HOTMIC_SOUND_FILE"),
		},
		Rules: RulesConfig{
			Path:           env("HOTMIC_RULES_FILE"),
			IterationLimit: envOrDefaultInt("HOTMIC_RULE_ITERATION_LIMIT", 0),
		},
		Session: SessionConfig{
			TimeoutSeconds: envOrDefaultInt("HOTMIC_TIMEOUT_SECONDS", 0),
			ChunkSize:      envOrDefaultInt("HOTMIC_AUDIO_CHUNK_SIZE", 0),
		},
		OpenAI: OpenAIConfig{
			BaseURL: firstNonEmpty(os.Getenv("HOTMIC_OPENAI_BASE_URL"), os.Getenv("OPENAI_BASE_URL")),
		},
		Deepgram: DeepgramConfig{
			BaseURL: env("DEEPGRAM_API_BASE"),
		},
		Storage: StorageConfig{
			ModelsDir:   env("HOTMIC_MODELS_DIR"),
			HistoryPath: env("HOTMIC_HISTORY_DB"),
			TempDir:     env("HOTMIC_TEMP_DIR"),
		},
		Log: LogConfig{
			Level: env("HOTMIC_LOG_LEVEL"),
			File:  env("HOTMIC_LOG_FILE"),
		},
	}
}

// applyEnvBools handles booleans separately since a merge cannot tell an
// explicit false from an unset value.
func applyEnvBools(cfg *Config) {
	cfg.Fallback.Enabled = envOrDefaultBool("HOTMIC_FALLBACK", cfg.Fallback.Enabled)
	cfg.Feedback.PlaySound = envOrDefaultBool("HOTMIC_PLAY_SOUND", cfg.Feedback.PlaySound)
	cfg.Feedback.ShowNotifications = envOrDefaultBool("HOTMIC_NOTIFICATIONS", cfg.Feedback.ShowNotifications)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
