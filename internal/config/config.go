// Package config loads process configuration: environment variables for
// process-level settings, plus the ./world.yaml document for the
// domain-specific world-generation keys.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully resolved process configuration.
type Config struct {
	Process ProcessConfig
	World   WorldConfig
}

// ProcessConfig holds settings sourced from the environment, following the
// engine's own env-var-first convention for anything that varies by
// deployment rather than by world.
type ProcessConfig struct {
	LogLevel     string
	WorldDir     string
	TickInterval time.Duration
}

// WorldConfig holds the §6 `world.*`/`server.*` keys, loaded from a YAML
// document.
type WorldConfig struct {
	World  WorldSection  `yaml:"world"`
	Server ServerSection `yaml:"server"`
}

type WorldSection struct {
	// Seed is either the literal string "random" or a parseable uint32.
	Seed string `yaml:"seed"`
	// ChunksCached is the LRU cache capacity C.
	ChunksCached int `yaml:"chunks_cached"`
	// PregenMin/PregenMax describe the inclusive pregen range [a..=b].
	PregenMin int32 `yaml:"pregen_min"`
	PregenMax int32 `yaml:"pregen_max"`
	// Spawn is an optional explicit [x,y,z] override; nil means "scan for it".
	Spawn *[3]int32 `yaml:"spawn"`
}

type ServerSection struct {
	MaxViewDistance int32 `yaml:"max_view_distance"`
}

func defaultWorldConfig() WorldConfig {
	return WorldConfig{
		World: WorldSection{
			Seed:         "random",
			ChunksCached: 4000,
			PregenMin:    -12,
			PregenMax:    12,
			Spawn:        nil,
		},
		Server: ServerSection{
			MaxViewDistance: 20,
		},
	}
}

// Load resolves process configuration from the environment and, if present,
// the world config file at worldConfigPath.
func Load(worldConfigPath string) (*Config, error) {
	cfg := &Config{
		Process: ProcessConfig{
			LogLevel:     getEnvStr("WORLDGEN_LOG_LEVEL", "info"),
			WorldDir:     getEnvStr("WORLDGEN_WORLD_DIR", "./world"),
			TickInterval: getEnvDuration("WORLDGEN_TICK_INTERVAL", 50*time.Millisecond),
		},
		World: defaultWorldConfig(),
	}

	if worldConfigPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(worldConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read world config %s: %w", worldConfigPath, err)
	}

	world := defaultWorldConfig()
	if err := yaml.Unmarshal(data, &world); err != nil {
		return nil, fmt.Errorf("parse world config %s: %w", worldConfigPath, err)
	}
	cfg.World = world

	return cfg, nil
}

// ResolveSeed parses the configured seed, generating a random one if the
// value is "random" or empty.
func (w WorldSection) ResolveSeed(randomSeed uint32) uint32 {
	if w.Seed == "" || w.Seed == "random" {
		return randomSeed
	}
	parsed, err := strconv.ParseUint(w.Seed, 10, 32)
	if err != nil {
		return randomSeed
	}
	return uint32(parsed)
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
