package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"hotmic/internal/audio"
	"hotmic/internal/domain"
)

const defaultFinalizeGrace = 10 * time.Second

// Transcriber transcribes finished recordings by replaying them over a
// Deepgram live connection and joining the final segments.
type Transcriber struct {
	cfg    Config
	dialer *websocket.Dialer
	grace  time.Duration
}

func NewTranscriber(cfg Config) (*Transcriber, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Transcriber{cfg: cfg, dialer: websocket.DefaultDialer, grace: defaultFinalizeGrace}, nil
}

func (t *Transcriber) Name() string { return "deepgram:" + t.cfg.Model }

func (t *Transcriber) Close() error { return nil }

func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	pcm, rate, err := audio.ReadPCM16(path)
	if err != nil {
		return "", err
	}
	conn, err := t.dial(ctx, rate)
	if err != nil {
		return "", err
	}
	return newReplay(conn).run(ctx, pcm, t.cfg.ChunkSize, t.grace)
}

func (t *Transcriber) dial(ctx context.Context, rate int) (*websocket.Conn, error) {
	wsURL, err := listenURL(t.cfg, rate)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set("Authorization", "Token "+t.cfg.APIKey)

	conn, resp, err := t.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil && resp.StatusCode >= http.StatusBadRequest {
			return nil, &domain.HTTPError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("failed to connect to Deepgram: %w", err)
	}
	return conn, nil
}
