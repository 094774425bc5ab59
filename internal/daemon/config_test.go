package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8642 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8642)
	}
	if cfg.Rules.Levels != 3 {
		t.Errorf("Rules.Levels = %d, want 3", cfg.Rules.Levels)
	}
	if cfg.Rules.QuestionsPerLevel != 12 {
		t.Errorf("Rules.QuestionsPerLevel = %d, want 12", cfg.Rules.QuestionsPerLevel)
	}
	if cfg.XP.PerCorrect != 10 {
		t.Errorf("XP.PerCorrect = %d, want 10", cfg.XP.PerCorrect)
	}
	if !cfg.Telemetry.Prometheus {
		t.Error("Telemetry.Prometheus should default to true")
	}
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("WHYLEE_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Rules.RedemptionStreak != 3 {
		t.Errorf("RedemptionStreak = %d, want 3", cfg.Rules.RedemptionStreak)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WHYLEE_HOME", home)

	content := `
[rules]
levels = 5
questions_per_level = 8

[api]
port = 9999
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Rules.Levels != 5 {
		t.Errorf("Rules.Levels = %d, want 5", cfg.Rules.Levels)
	}
	if cfg.Rules.QuestionsPerLevel != 8 {
		t.Errorf("Rules.QuestionsPerLevel = %d, want 8", cfg.Rules.QuestionsPerLevel)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port = %d, want 9999", cfg.API.Port)
	}
	// Untouched sections keep defaults.
	if cfg.XP.PerCorrect != 10 {
		t.Errorf("XP.PerCorrect = %d, want 10", cfg.XP.PerCorrect)
	}
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WHYLEE_HOME", home)

	content := `
[rules]
levels = 0
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject levels = 0")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("WHYLEE_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Rules.Levels = 4
	cfg.Questions.ShuffleSeed = 42

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Rules.Levels != 4 {
		t.Errorf("Rules.Levels = %d, want 4", loaded.Rules.Levels)
	}
	if loaded.Questions.ShuffleSeed != 42 {
		t.Errorf("Questions.ShuffleSeed = %d, want 42", loaded.Questions.ShuffleSeed)
	}
}

func TestWhyleeHome_EnvOverride(t *testing.T) {
	t.Setenv("WHYLEE_HOME", "/tmp/custom-whylee")

	if got := WhyleeHome(); got != "/tmp/custom-whylee" {
		t.Errorf("WhyleeHome() = %q, want /tmp/custom-whylee", got)
	}
}
