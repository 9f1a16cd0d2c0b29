// Package openai transcribes recordings with the OpenAI audio API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"hotmic/internal/domain"
)

const DefaultModel = goopenai.Whisper1

var ErrMissingAPIKey = errors.New("openai API key is not configured")

type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type Transcriber struct {
	client   *goopenai.Client
	model    string
	language string
}

func NewTranscriber(cfg Config) (*Transcriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "auto" {
		cfg.Language = ""
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Transcriber{
		client:   goopenai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: cfg.Language,
	}, nil
}

func (t *Transcriber) Name() string { return "openai:" + t.model }

func (t *Transcriber) Close() error { return nil }

func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrNoAudioData
		}
		return "", fmt.Errorf("stat recording: %w", err)
	}

	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", mapError(err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// mapError converts client errors into the domain transcription errors.
func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return &domain.APIError{Message: msg}
		}
		return &domain.HTTPError{StatusCode: apiErr.HTTPStatusCode}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &domain.HTTPError{StatusCode: reqErr.HTTPStatusCode}
	}
	return err
}
