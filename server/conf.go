package server

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/prometheus/client_golang/prometheus"
)

// Config contains the options used to start an Engine.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set
	// to slog.Default().
	Log *slog.Logger
	// SaveFolder is the directory the world's LevelDB database lives in. If
	// empty, the engine runs purely in memory and Close discards all state.
	SaveFolder string
	// TickRate is how many ticks per second the caller means to run. The
	// Engine keeps it in its Config but has no ticking loop of its own and
	// does not read it: callers drive Engine.Step themselves.
	TickRate int
	// Metrics is the registry the scheduler's Prometheus collectors are
	// registered against. If nil, the collectors are not registered with
	// any registry. The engine never serves /metrics itself, that is left
	// to the embedding process.
	Metrics prometheus.Registerer
	// ChunkPreload lists the chunk positions New eagerly EmplaceChunks on
	// startup. New does not consult the save folder for them.
	ChunkPreload []ChunkPosConfig
}

// ChunkPosConfig names a chunk position in a form that survives a TOML
// round-trip (world.ChunkPos itself is defined in terms of an int32 pair,
// which toml happily encodes, but keeping the config-facing type separate
// avoids tying this package to world's internals).
type ChunkPosConfig struct {
	X, Y int32
}

// DefaultTickRate is used when UserConfig.Engine.TickRate is left at zero.
const DefaultTickRate = 60

// UserConfig is the TOML-facing configuration loaded from disk, converted
// to a Config via UserConfig.Config.
type UserConfig struct {
	Engine struct {
		// TickRate is how many ticks per second the scheduler should aim
		// to run.
		TickRate int
		// LogLevel selects the minimum slog level logged: "debug", "info",
		// "warn" or "error". Defaults to "info".
		LogLevel string
	}
	World struct {
		// SaveData controls whether chunk and segment state is persisted
		// to LevelDB at SaveFolder. If false, the engine starts empty
		// every run and nothing is written to disk.
		SaveData bool
		// Folder is where the world's LevelDB database lives.
		Folder string
	}
	Metrics struct {
		// Enabled controls whether scheduler metrics are registered at
		// all. The engine never opens an HTTP listener for them; the
		// embedding process is expected to serve promhttp itself.
		Enabled bool
	}
}

// DefaultConfig returns a UserConfig with reasonable defaults for running
// a single in-memory world.
func DefaultConfig() UserConfig {
	uc := UserConfig{}
	uc.Engine.TickRate = DefaultTickRate
	uc.Engine.LogLevel = "info"
	uc.World.SaveData = false
	uc.World.Folder = "world"
	uc.Metrics.Enabled = true
	return uc
}

// Config converts uc to a Config suitable for Config.New, using log as the
// returned Config's logger. If log is nil, a new text logger writing to
// stderr at the level named by uc.Engine.LogLevel is built instead.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(uc.Engine.LogLevel),
		}))
	}

	conf := Config{
		Log:      log,
		TickRate: uc.Engine.TickRate,
	}
	if conf.TickRate <= 0 {
		conf.TickRate = DefaultTickRate
	}
	if uc.World.SaveData {
		folder := strings.TrimSpace(uc.World.Folder)
		if folder == "" {
			folder = "world"
		}
		conf.SaveFolder = folder
	}
	if uc.Metrics.Enabled {
		conf.Metrics = prometheus.NewRegistry()
	}
	return conf, nil
}

// LoadUserConfig reads and parses a TOML UserConfig from path. If path does
// not exist, it is created with DefaultConfig's values and that default is
// returned, mirroring the teacher's whitelist-file bootstrap behaviour.
func LoadUserConfig(path string) (UserConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		uc := DefaultConfig()
		if err := SaveUserConfig(path, uc); err != nil {
			return uc, fmt.Errorf("write default config: %w", err)
		}
		return uc, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return UserConfig{}, fmt.Errorf("read config: %w", err)
	}
	var uc UserConfig
	if err := toml.Unmarshal(contents, &uc); err != nil {
		return UserConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return uc, nil
}

// SaveUserConfig writes uc to path as TOML, creating its parent directory
// if necessary.
func SaveUserConfig(path string, uc UserConfig) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	encoded, err := toml.Marshal(uc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, encoded, 0666)
}

// parseLogLevel resolves a UserConfig.Engine.LogLevel string to a
// slog.Level, defaulting to slog.LevelInfo for an empty or unrecognised
// value.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
