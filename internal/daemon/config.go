// Package daemon manages the Whylee service lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/whylee-play/whylee/internal/app/session"
)

// Config holds all service configuration.
type Config struct {
	Rules     session.Rules   `toml:"rules"`
	XP        session.XPTable `toml:"xp"`
	API       APIConfig       `toml:"api"`
	Questions QuestionsConfig `toml:"questions"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// QuestionsConfig controls the question bank.
type QuestionsConfig struct {
	CSVPath     string `toml:"csv_path"`
	ShuffleSeed int64  `toml:"shuffle_seed"` // 0 = time-seeded per session
}

// TelemetryConfig controls observability.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// SessionConfig assembles the session engine's rules view.
func (c Config) SessionConfig() session.Config {
	return session.Config{Rules: c.Rules, XP: c.XP}
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	defaults := session.DefaultConfig()
	return Config{
		Rules: defaults.Rules,
		XP:    defaults.XP,
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8642,
			CORSOrigins: []string{"*"},
		},
		Questions: QuestionsConfig{
			CSVPath: filepath.Join(whyleeHome(), "questions.csv"),
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $WHYLEE_HOME/config.toml, falling back to
// defaults. A .env file in the working directory is loaded first so
// WHYLEE_HOME can live there.
func LoadConfig() (Config, error) {
	_ = godotenv.Load() // no .env is fine

	cfg := DefaultConfig()
	path := filepath.Join(whyleeHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to $WHYLEE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(whyleeHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

func validate(cfg Config) error {
	if cfg.Rules.Levels < 1 {
		return fmt.Errorf("rules.levels must be >= 1, got %d", cfg.Rules.Levels)
	}
	if cfg.Rules.QuestionsPerLevel < 1 {
		return fmt.Errorf("rules.questions_per_level must be >= 1, got %d", cfg.Rules.QuestionsPerLevel)
	}
	if cfg.Rules.RedemptionStreak < 1 {
		return fmt.Errorf("rules.redemption_streak must be >= 1, got %d", cfg.Rules.RedemptionStreak)
	}
	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", cfg.API.Port)
	}
	return nil
}

// whyleeHome returns the Whylee data directory.
func whyleeHome() string {
	if env := os.Getenv("WHYLEE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".whylee")
}

// WhyleeHome is exported for use by other packages.
func WhyleeHome() string {
	return whyleeHome()
}
