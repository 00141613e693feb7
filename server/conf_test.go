package server

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestLoadUserConfigCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	uc, err := LoadUserConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if uc.Engine.TickRate != DefaultTickRate {
		t.Fatalf("expected default tick rate %d, got %d", DefaultTickRate, uc.Engine.TickRate)
	}

	reloaded, err := LoadUserConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded != uc {
		t.Fatalf("expected the written default to round-trip unchanged, got %+v", reloaded)
	}
}

func TestUserConfigConfigAppliesSaveFolderOnlyWhenEnabled(t *testing.T) {
	uc := DefaultConfig()
	uc.World.SaveData = false

	conf, err := uc.Config(slog.Default())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if conf.SaveFolder != "" {
		t.Fatalf("expected no save folder when SaveData is false, got %q", conf.SaveFolder)
	}

	uc.World.SaveData = true
	uc.World.Folder = "mysave"
	conf, err = uc.Config(slog.Default())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if conf.SaveFolder != "mysave" {
		t.Fatalf("expected SaveFolder %q, got %q", "mysave", conf.SaveFolder)
	}
}

func TestUserConfigConfigFallsBackToDefaultTickRate(t *testing.T) {
	uc := DefaultConfig()
	uc.Engine.TickRate = 0

	conf, err := uc.Config(slog.Default())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if conf.TickRate != DefaultTickRate {
		t.Fatalf("expected a non-positive tick rate to fall back to %d, got %d", DefaultTickRate, conf.TickRate)
	}
}

func TestUserConfigConfigBuildsALeveledLoggerWhenNoneGiven(t *testing.T) {
	uc := DefaultConfig()
	uc.Engine.LogLevel = "debug"

	conf, err := uc.Config(nil)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if conf.Log == nil {
		t.Fatal("expected a non-nil logger to be constructed")
	}
	if !conf.Log.Enabled(nil, slog.LevelDebug) {
		t.Fatal("expected the debug log level to be enabled")
	}
}

func TestParseLogLevelDefaultsToInfo(t *testing.T) {
	if parseLogLevel("") != slog.LevelInfo {
		t.Fatal("expected an empty level string to default to info")
	}
	if parseLogLevel("ERROR") != slog.LevelError {
		t.Fatal("expected level parsing to be case-insensitive")
	}
}
