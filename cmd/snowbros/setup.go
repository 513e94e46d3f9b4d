package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/director"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/storage"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// Director sources selectable with --director.
const (
	directorRemote = "remote" // generative service from the config
	directorLocal  = "local"  // in-process procedural generator
	directorOff    = "off"    // built-in fallback table only
)

// newLogger creates a logger honouring --log-level.
func newLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if lvl, err := log.ParseLevel(flagLogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// openLogFile opens ~/.snowbros/snowbros.log for appending. The TUI owns the
// terminal, so interactive commands log there. Failures yield io.Discard.
func openLogFile() io.WriteCloser {
	dir := config.Dir()
	if dir == "" {
		return nopCloser{io.Discard}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nopCloser{io.Discard}
	}
	f, err := os.OpenFile(filepath.Join(dir, "snowbros.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nopCloser{io.Discard}
	}
	return f
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// loadGameConfig loads the config and applies --difficulty and --fps.
func loadGameConfig() config.GameConfig {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
	}
	if flagDifficulty != "" {
		config.ApplyPreset(&cfg, config.DifficultyPreset(flagDifficulty))
	}
	if flagFPS > 0 {
		cfg.Loop.TickRate = flagFPS
	}
	return cfg
}

// openStore opens the leaderboard. A failure is logged and yields nil so the
// game still runs.
func openStore(logger *log.Logger) *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open scores database", "path", flagDBPath, "error", err)
		return nil
	}
	return store
}

// newDirector builds the director selected by source.
func newDirector(source string, cfg config.GameConfig, logger *log.Logger) (wave.Director, error) {
	bounds := wave.DefaultBounds(cfg.World.Width, cfg.World.Height)
	switch source {
	case directorOff:
		return nil, nil
	case directorLocal:
		return director.NewProcedural(bounds), nil
	}

	if !cfg.Director.Enabled {
		logger.Info("director disabled in config, using fallback waves")
		return nil, nil
	}
	key := os.Getenv(cfg.Director.APIKeyEnv)
	g, err := director.NewGenerative(cfg.Director, key, bounds, logger.WithPrefix("director"))
	if err != nil {
		return nil, err
	}
	if g.Offline() {
		logger.Warn("director API key not set, using fallback waves", "env", cfg.Director.APIKeyEnv)
	}
	return g, nil
}
