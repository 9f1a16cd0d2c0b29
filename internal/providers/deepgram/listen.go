package deepgram

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"hotmic/internal/audio"
)

const (
	DefaultBaseURL = "https://api.deepgram.com/v1"
	DefaultModel   = "nova-2"
)

var ErrMissingAPIKey = errors.New("deepgram API key is not configured")

// Config controls how recordings are replayed to Deepgram.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	// ChunkSize is the byte size of each binary frame sent during replay.
	ChunkSize int
}

func (c Config) withDefaults() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if strings.TrimSpace(c.APIBaseURL) == "" {
		c.APIBaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Language == "auto" {
		c.Language = ""
	}
	if c.ChunkSize < minChunkSize {
		c.ChunkSize = defaultChunkSize
	}
	return c
}

// listenURL is the websocket endpoint for a mono linear16 replay at rate.
// Only final results are requested.
func listenURL(cfg Config, rate int) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}
	if rate <= 0 {
		rate = audio.SampleRate
	}

	q := u.Query()
	q.Set("model", cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(rate))
	q.Set("channels", "1")
	q.Set("smart_format", strconv.FormatBool(cfg.SmartFormat))
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// listenMessage is the subset of a live listen response used by replay.
type listenMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (m listenMessage) transcript() string {
	if len(m.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(m.Channel.Alternatives[0].Transcript)
}
