package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"hotmic/internal/config"
	"hotmic/internal/domain"
	"hotmic/internal/ports"
	"hotmic/internal/providers/deepgram"
	"hotmic/internal/providers/openai"
	"hotmic/internal/providers/whispercpp"
)

var ErrUnknownEngine = errors.New("unknown transcription engine")

type modelPaths interface {
	Path(model string) string
}

// EngineFactory builds transcribers for an EngineSpec. Provider settings that
// are not part of the EngineSpec come from the live configuration.
type EngineFactory struct {
	models      modelPaths
	credentials ports.CredentialStore
	config      func() config.Config
	logger      *log.Logger

	local    func(whispercpp.Config) (ports.Transcriber, error)
	openai   func(openai.Config) (ports.Transcriber, error)
	deepgram func(deepgram.Config) (ports.Transcriber, error)
}

func NewEngineFactory(models modelPaths, credentials ports.CredentialStore, cfg func() config.Config, logger *log.Logger) *EngineFactory {
	if logger == nil {
		logger = log.Default()
	}
	return &EngineFactory{
		models:      models,
		credentials: credentials,
		config:      cfg,
		logger:      logger.WithPrefix("engines"),
		local: func(c whispercpp.Config) (ports.Transcriber, error) {
			return whispercpp.New(c, logger)
		},
		openai: func(c openai.Config) (ports.Transcriber, error) {
			return openai.NewTranscriber(c)
		},
		deepgram: func(c deepgram.Config) (ports.Transcriber, error) {
			return deepgram.NewTranscriber(c)
		},
	}
}

func (f *EngineFactory) Build(ctx context.Context, spec domain.EngineSpec) (ports.Transcriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.logger.Info("building engine", "type", spec.Type, "model", spec.Model, "provider", spec.CloudProvider)

	switch spec.Type {
	case domain.EngineLocal:
		return f.local(whispercpp.Config{
			ModelPath: f.models.Path(spec.Model),
			Language:  spec.Language,
		})
	case domain.EngineCloud:
		return f.buildCloud(spec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, spec.Type)
	}
}

func (f *EngineFactory) buildCloud(spec domain.EngineSpec) (ports.Transcriber, error) {
	key, err := f.credentials.Get(spec.CloudProvider)
	if err != nil {
		return nil, fmt.Errorf("%s credential: %w", spec.CloudProvider, err)
	}
	cfg := f.config()

	switch spec.CloudProvider {
	case "openai":
		return f.openai(openai.Config{
			APIKey:   key,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    spec.Model,
			Language: spec.Language,
		})
	case "deepgram":
		return f.deepgram(deepgram.Config{
			APIKey:      key,
			APIBaseURL:  cfg.Deepgram.BaseURL,
			Model:       spec.Model,
			Language:    spec.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
			ChunkSize:   cfg.Session.ChunkSize,
		})
	default:
		return nil, fmt.Errorf("%w: cloud provider %q", ErrUnknownEngine, spec.CloudProvider)
	}
}
