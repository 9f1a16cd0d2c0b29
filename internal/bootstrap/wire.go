package bootstrap

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"hotmic/internal/audio"
	"hotmic/internal/audio/mic"
	"hotmic/internal/config"
	"hotmic/internal/credentials"
	"hotmic/internal/domain"
	"hotmic/internal/history"
	"hotmic/internal/hotkey"
	"hotmic/internal/insert"
	"hotmic/internal/logging"
	"hotmic/internal/models"
	"hotmic/internal/ports"
	"hotmic/internal/power"
	"hotmic/internal/rules"
	"hotmic/internal/sound"
	"hotmic/internal/usecase"
)

const historyKeep = 500

type engineSwitcher interface {
	Reconfigure(spec domain.EngineSpec)
	Status() domain.Status
}

type hotkeyBinder interface {
	Bind(bindings map[domain.HotkeyMode]domain.HotkeyBinding) error
}

type rulesReloader interface {
	Reload() error
}

// Services is the assembled runtime graph.
type Services struct {
	Controller  *usecase.SessionController
	Settings    *config.Settings
	Hotkeys     *hotkey.Listener
	History     *history.Store
	Models      *models.Store
	Credentials *credentials.Store
	Rules       *rules.Engine
	Logger      *log.Logger

	engines  engineSwitcher
	binder   hotkeyBinder
	reloader rulesReloader

	closers []io.Closer
	watcher *config.Watcher
}

// Build wires all backend dependencies for the current runtime. Nothing is
// started until Start.
func Build(eventSink ports.EventSink, clipboard ports.Clipboard) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	s := &Services{Logger: logger, closers: []io.Closer{logCloser}}

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Settings = config.NewSettings(cfg)
	s.Rules = rulesEngine
	s.Models = models.NewStore(cfg.Storage.ModelsDir)
	s.Credentials = credentials.New()

	deps := usecase.Dependencies{
		Engines:     NewEngineFactory(s.Models, s.Credentials, s.Settings.Config, logger),
		Models:      s.Models,
		Credentials: s.Credentials,
		Preferences: s.Settings,
		Inserter:    insert.New(clipboard, logger),
		Rules:       rulesEngine,
		CancelKey:   hotkey.NewEscapeMonitor(logger),
		Sounds:      sound.NewPlayer(cfg.Feedback.SoundFile, logger),
		Events:      eventSink,
		Logger:      logger,
	}

	switch cfg.Audio.Backend {
	case "ffmpeg":
		deps.Audio = audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand)
	default:
		capture := mic.New(logger)
		deps.Audio = capture
		s.closers = append(s.closers, capture)
	}

	store, err := history.Open(cfg.Storage.HistoryPath)
	if err != nil {
		logger.Warn("transcription history disabled", "path", cfg.Storage.HistoryPath, "err", err)
	} else {
		s.History = store
		deps.History = store
		s.closers = append(s.closers, store)
	}

	s.Controller = usecase.NewSessionController(deps, usecase.Config{
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		TempDir:              cfg.Storage.TempDir,
		TranscriptionTimeout: cfg.Timeout(),
	})
	s.Hotkeys = hotkey.NewListener(s.Controller, logger)

	s.engines = s.Controller
	s.binder = s.Hotkeys
	s.reloader = rulesEngine
	return s, nil
}

// Start runs the controller and its event sources until ctx is done.
func (s *Services) Start(ctx context.Context) error {
	cfg := s.Settings.Config()

	if n, err := CleanStaleRecordings(cfg.Storage.TempDir, staleRecordingAge, time.Now()); err != nil {
		s.Logger.Warn("stale recording cleanup incomplete", "err", err)
	} else if n > 0 {
		s.Logger.Info("removed stale recordings", "count", n)
	}
	if s.History != nil {
		if _, err := s.History.Prune(ctx, historyKeep); err != nil {
			s.Logger.Warn("history prune failed", "err", err)
		}
	}

	logging.Go(s.Logger, "session controller", func() {
		if err := s.Controller.Run(ctx); err != nil {
			s.Logger.Error("session controller stopped", "err", err)
		}
	})
	s.Controller.Reconfigure(cfg.Preferences().Engine)

	if err := s.Hotkeys.Bind(cfg.Bindings()); err != nil {
		s.Logger.Warn("hotkey registration incomplete", "err", err)
	}

	logging.Go(s.Logger, "power watcher", func() {
		if err := power.Watch(ctx, s.Controller, s.Logger); err != nil {
			s.Logger.Warn("sleep notifications unavailable", "err", err)
		}
	})

	watcher, err := config.NewWatcher(cfg.Path, 0, s.applySettings, s.Logger)
	if err != nil {
		s.Logger.Warn("settings hot reload unavailable", "err", err)
		return nil
	}
	s.watcher = watcher
	return nil
}

// applySettings swaps in a reloaded configuration and pushes the parts that
// changed to their owners.
func (s *Services) applySettings(next config.Config) {
	prev := s.Settings.Replace(next)

	if err := s.reloader.Reload(); err != nil {
		s.Logger.Warn("rules reload failed; keeping previous rules", "err", err)
	}
	if prev.Hotkeys != next.Hotkeys {
		if err := s.binder.Bind(next.Bindings()); err != nil {
			s.Logger.Warn("hotkey registration incomplete", "err", err)
		}
	}
	spec := next.Preferences().Engine
	status := s.engines.Status()
	if spec != prev.Preferences().Engine || (!status.EngineReady && !status.Initializing) {
		s.engines.Reconfigure(spec)
	}
}

// Close releases everything Build and Start acquired. The controller itself
// stops with the context passed to Start.
func (s *Services) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	if s.Hotkeys != nil {
		s.Hotkeys.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}
