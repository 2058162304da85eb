// Package config loads player settings from YAML, validates them against an
// embedded CUE schema and applies environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/input"
	"github.com/roach88/nback/internal/scoring"
	"github.com/roach88/nback/internal/stimulus"
)

// DefaultStartLevel is the level a new player starts at.
const DefaultStartLevel = 2

// DefaultDatabase is the session store path used when none is configured.
const DefaultDatabase = "nback.db"

// Config holds every tunable setting. yaml and json tags must agree: the
// json names are what the CUE schema sees.
type Config struct {
	Alphabet       []string      `yaml:"alphabet" json:"alphabet"`
	ISI            time.Duration `yaml:"isi" json:"isi"`
	ResponseWindow time.Duration `yaml:"response_window" json:"response_window"`
	LevelUpDelay   time.Duration `yaml:"level_up_delay" json:"level_up_delay"`
	MatchRate      float64       `yaml:"match_rate" json:"match_rate"`
	Thresholds     Thresholds    `yaml:"thresholds" json:"thresholds"`
	Levels         Levels        `yaml:"levels" json:"levels"`
	StartLevel     int           `yaml:"start_level" json:"start_level"`
	TrialsPerBlock int           `yaml:"trials_per_block" json:"trials_per_block"` // 0 means 20+n
	Debounce       time.Duration `yaml:"debounce" json:"debounce"`
	Database       string        `yaml:"database" json:"database"`
	Sounds         Sounds        `yaml:"sounds" json:"sounds"`
}

// Thresholds are the adaptive accuracy cut-offs.
type Thresholds struct {
	Increase float64 `yaml:"increase" json:"increase"`
	Decrease float64 `yaml:"decrease" json:"decrease"`
}

// Levels bound n.
type Levels struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Sounds configures the external playback command. An empty Command means
// cues are only logged.
type Sounds struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`
	Dir     string   `yaml:"dir" json:"dir"`
	Ext     string   `yaml:"ext" json:"ext"`
}

// Default returns the built-in settings.
func Default() Config {
	alphabet := stimulus.DefaultAlphabet()
	letters := make([]string, len(alphabet))
	for i, s := range alphabet {
		letters[i] = string(s)
	}

	return Config{
		Alphabet:       letters,
		ISI:            engine.DefaultISI,
		ResponseWindow: engine.DefaultResponseWindow,
		LevelUpDelay:   engine.DefaultLevelUpDelay,
		MatchRate:      stimulus.DefaultMatchRate,
		Thresholds: Thresholds{
			Increase: scoring.DefaultIncreaseThreshold,
			Decrease: scoring.DefaultDecreaseThreshold,
		},
		Levels: Levels{
			Min: scoring.DefaultMinN,
			Max: scoring.DefaultMaxN,
		},
		StartLevel: DefaultStartLevel,
		Debounce:   input.DefaultDebounce,
		Database:   DefaultDatabase,
		Sounds: Sounds{
			Args: []string{},
			Ext:  "wav",
		},
	}
}

// Load reads a YAML config file over the defaults. Keys missing from the
// file keep their default value; unknown keys are an error. An empty path
// returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Normalize canonicalizes alphabet symbols (trimmed, NFC, upper case) so
// "k" and "K" name the same letter.
func (c *Config) Normalize() {
	upper := cases.Upper(language.Und)
	for i, s := range c.Alphabet {
		c.Alphabet[i] = upper.String(norm.NFC.String(strings.TrimSpace(s)))
	}
	if c.Sounds.Args == nil {
		c.Sounds.Args = []string{}
	}
}

// Validate checks c against the CUE schema.
func (c Config) Validate() error {
	return validateSchema(c)
}

// AlphabetSymbols returns the alphabet as stimulus symbols.
func (c Config) AlphabetSymbols() stimulus.Alphabet {
	a := make(stimulus.Alphabet, len(c.Alphabet))
	for i, s := range c.Alphabet {
		a[i] = stimulus.Symbol(s)
	}
	return a
}

// ScoringThresholds converts the adaptive settings for the engine.
func (c Config) ScoringThresholds() scoring.Thresholds {
	return scoring.Thresholds{
		Increase: c.Thresholds.Increase,
		Decrease: c.Thresholds.Decrease,
		MinN:     c.Levels.Min,
		MaxN:     c.Levels.Max,
	}
}

// EngineOptions returns the engine options these settings imply.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithISI(c.ISI),
		engine.WithResponseWindow(c.ResponseWindow),
		engine.WithLevelUpDelay(c.LevelUpDelay),
		engine.WithMatchRate(c.MatchRate),
		engine.WithThresholds(c.ScoringThresholds()),
		engine.WithAlphabet(c.AlphabetSymbols()),
	}
}

// TrialsFor returns the trial count for a block at level n.
func (c Config) TrialsFor(n int) int {
	if c.TrialsPerBlock > 0 {
		return c.TrialsPerBlock
	}
	return stimulus.DefaultTrialCount(n)
}
