// Package whispercpp runs whisper.cpp models on-device.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"hotmic/internal/audio"
)

type Config struct {
	ModelPath string
	Language  string
	Threads   uint
}

// Transcriber holds a loaded whisper.cpp model. Loading happens in New and
// is the slow part of engine initialization.
type Transcriber struct {
	cfg    Config
	logger *log.Logger

	mu     sync.Mutex
	model  whisper.Model
	closed bool
}

func New(cfg Config, logger *log.Logger) (*Transcriber, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("whisper.cpp model path is not configured")
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("whispercpp")

	logger.Info("loading model", "path", cfg.ModelPath)
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	logger.Info("model loaded", "multilingual", model.IsMultilingual())

	return &Transcriber{cfg: cfg, logger: logger, model: model}, nil
}

func (t *Transcriber) Name() string { return "whispercpp" }

func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	samples, rate, err := audio.ReadFloat32(path)
	if err != nil {
		return "", err
	}
	if rate != whisper.SampleRate {
		return "", fmt.Errorf("recording is %d Hz, whisper.cpp requires %d Hz", rate, whisper.SampleRate)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", errors.New("whisper.cpp model is closed")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	language := t.cfg.Language
	if language == "" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		t.logger.Warn("failed to set language", "language", language, "err", err)
	}
	if t.cfg.Threads > 0 {
		wctx.SetThreads(t.cfg.Threads)
	}

	keepGoing := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, keepGoing, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("get segment: %w", err)
		}
		text.WriteString(segment.Text)
	}

	result := strings.TrimSpace(text.String())
	t.logger.Debug("transcription complete", "samples", len(samples), "length", len(result))
	return result, nil
}

// Close releases the model once any in-flight transcription has finished.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.model.Close()
}
