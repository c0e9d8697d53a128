// Package config loads loopctl configuration from ~/.loopctl/config.toml,
// LOOP_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/loopctl/internal/application"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configDir  = ".loopctl"
	configName = "config"
	configType = "toml"
	envPrefix  = "LOOP"

	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds the resolved settings for one loopctl process.
type Config struct {
	DataDir       string
	SettingsPath  string
	OverridesPath string
	PumpPath      string
	HistoryPath   string

	DecisionsBackend string
	PostgresURL      string

	AlgorithmCommand string
	AlgorithmArgs    []string
	AlgorithmTimeout time.Duration

	Timing application.Timing

	TelemetryEnabled  bool
	TelemetryEndpoint string
	TelemetryInsecure bool

	NotifyDesktop bool
	LogLevel      string
}

// Load reads configuration into v. A nil v uses a fresh viper instance. A
// missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	setDefaults(v, filepath.Join(homeDir, configDir))

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(homeDir, configDir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	dataDir := expandHome(v.GetString("data.dir"), homeDir)
	pathOr := func(key, file string) string {
		if p := v.GetString(key); p != "" {
			return expandHome(p, homeDir)
		}
		return filepath.Join(dataDir, file)
	}

	cfg := Config{
		DataDir:          dataDir,
		SettingsPath:     pathOr("settings.path", "settings.toml"),
		OverridesPath:    pathOr("overrides.path", "overrides.toml"),
		PumpPath:         pathOr("pump.path", "pump.toml"),
		HistoryPath:      pathOr("history.path", "history.db"),
		DecisionsBackend: strings.ToLower(strings.TrimSpace(v.GetString("decisions.backend"))),
		PostgresURL:      v.GetString("decisions.postgres_url"),
		AlgorithmCommand: v.GetString("algorithm.command"),
		AlgorithmArgs:    v.GetStringSlice("algorithm.args"),
		AlgorithmTimeout: v.GetDuration("algorithm.timeout"),
		Timing: application.Timing{
			LoopInterval:             v.GetDuration("loop.interval"),
			RecencyInterval:          v.GetDuration("loop.recency_interval"),
			ContinuationInterval:     v.GetDuration("loop.continuation_interval"),
			MinTriggerInterval:       v.GetDuration("loop.min_trigger_interval"),
			MaxCarbAbsorptionTime:    v.GetDuration("loop.max_carb_absorption"),
			InsulinActivityDuration:  v.GetDuration("loop.insulin_activity_duration"),
			GlucoseDelta:             v.GetDuration("loop.glucose_delta"),
			OverrideHistoryRetention: v.GetDuration("loop.override_retention"),
		},
		TelemetryEnabled:  v.GetBool("telemetry.enabled"),
		TelemetryEndpoint: v.GetString("telemetry.endpoint"),
		TelemetryInsecure: v.GetBool("telemetry.insecure"),
		NotifyDesktop:     v.GetBool("notify.desktop"),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, dataDir string) {
	timing := application.DefaultTiming()

	v.SetDefault("data.dir", dataDir)
	v.SetDefault("settings.path", "")
	v.SetDefault("overrides.path", "")
	v.SetDefault("pump.path", "")
	v.SetDefault("history.path", "")
	v.SetDefault("decisions.backend", BackendSQLite)
	v.SetDefault("decisions.postgres_url", "")
	v.SetDefault("algorithm.command", "")
	v.SetDefault("algorithm.args", []string{})
	v.SetDefault("algorithm.timeout", 30*time.Second)
	v.SetDefault("loop.interval", timing.LoopInterval)
	v.SetDefault("loop.recency_interval", timing.RecencyInterval)
	v.SetDefault("loop.continuation_interval", timing.ContinuationInterval)
	v.SetDefault("loop.min_trigger_interval", timing.MinTriggerInterval)
	v.SetDefault("loop.max_carb_absorption", timing.MaxCarbAbsorptionTime)
	v.SetDefault("loop.insulin_activity_duration", timing.InsulinActivityDuration)
	v.SetDefault("loop.glucose_delta", timing.GlucoseDelta)
	v.SetDefault("loop.override_retention", timing.OverrideHistoryRetention)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("notify.desktop", false)
	v.SetDefault("log.level", "info")
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	switch c.DecisionsBackend {
	case BackendSQLite:
	case BackendPostgres:
		if c.PostgresURL == "" {
			return errors.New("config: decisions.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unsupported decisions.backend %q", c.DecisionsBackend)
	}

	if c.AlgorithmTimeout <= 0 {
		return errors.New("config: algorithm.timeout must be positive")
	}
	if c.Timing.LoopInterval < 0 {
		return errors.New("config: loop.interval must not be negative")
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{"loop.recency_interval", c.Timing.RecencyInterval},
		{"loop.continuation_interval", c.Timing.ContinuationInterval},
		{"loop.min_trigger_interval", c.Timing.MinTriggerInterval},
		{"loop.max_carb_absorption", c.Timing.MaxCarbAbsorptionTime},
		{"loop.insulin_activity_duration", c.Timing.InsulinActivityDuration},
		{"loop.glucose_delta", c.Timing.GlucoseDelta},
		{"loop.override_retention", c.Timing.OverrideHistoryRetention},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("config: %s must be positive", d.key)
		}
	}

	if c.TelemetryEnabled && c.TelemetryEndpoint == "" {
		return errors.New("config: telemetry.endpoint is required when telemetry is enabled")
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log.level %q", c.LogLevel)
	}

	return level, nil
}

func expandHome(path, homeDir string) string {
	path = strings.TrimSpace(path)
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return filepath.Clean(path)
}
