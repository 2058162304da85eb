package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvDatabase     = "NBACK_DB"
	EnvStartLevel   = "NBACK_START_LEVEL"
	EnvSoundCommand = "NBACK_SOUND_COMMAND"
	EnvSoundDir     = "NBACK_SOUND_DIR"
)

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	slog.Debug("loaded env file", "path", path)
	return nil
}

// ApplyEnv overrides c with NBACK_* variables from the process environment
// and validates the result.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database = v
	}
	if v, ok := lookup(EnvStartLevel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStartLevel, err)
		}
		c.StartLevel = n
	}
	if v, ok := lookup(EnvSoundCommand); ok {
		c.Sounds.Command = v
	}
	if v, ok := lookup(EnvSoundDir); ok {
		c.Sounds.Dir = v
	}
	return c.Validate()
}
