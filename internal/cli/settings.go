package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/nback/internal/audio"
	"github.com/roach88/nback/internal/config"
	"github.com/roach88/nback/internal/store"
)

// setupLogging installs the default slog handler writing text to w.
func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves settings in increasing priority: defaults, the
// --config file, .env and NBACK_* variables, then --db.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if err := config.LoadDotEnv(""); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load .env", err)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid environment override", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	slog.Debug("config loaded",
		"path", opts.ConfigPath,
		"database", cfg.Database,
		"start_level", cfg.StartLevel,
	)
	return cfg, nil
}

// openStore opens the session database named by cfg.
func openStore(cfg config.Config) (*store.Store, error) {
	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging rather than returning the error.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// soundPlayer builds the audio collaborator from cfg. Cues are always logged
// at debug level; with a command configured they are also played.
func soundPlayer(cfg config.Config) audio.Player {
	logged := audio.LogPlayer{Level: slog.LevelDebug}
	if cfg.Sounds.Command == "" {
		return logged
	}

	ext := cfg.Sounds.Ext
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return audio.Multi(logged, audio.CommandPlayer{
		Command: cfg.Sounds.Command,
		Args:    cfg.Sounds.Args,
		Dir:     cfg.Sounds.Dir,
		Ext:     ext,
	})
}

// logFile opens a log file for interactive mode, where stderr belongs to
// the screen. An empty path discards logs.
func logFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open log file", err)
	}
	return f, func() { _ = f.Close() }, nil
}
