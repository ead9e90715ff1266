// Package config provides configuration management for the value scanner.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "VALUE_SCANNER"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing config file falls back entirely to defaults and
// environment variables.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults applies the engine's standard calibration. The numeric
// thresholds mirror the documented defaults and are meant to be tuned
// per deployment, not treated as ground truth.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "value-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("engine.value_threshold", 0.03)
	v.SetDefault("engine.dud_margin", 0.05)
	v.SetDefault("engine.fav_odds_max", 5.0)
	v.SetDefault("engine.min_model_prob", 0.10)
	v.SetDefault("engine.odds_min", 1.5)
	v.SetDefault("engine.odds_max", 30.0)
	v.SetDefault("engine.min_edge_percent", 0.0)
	v.SetDefault("engine.field_min", 4)
	v.SetDefault("engine.field_max", 10)
	v.SetDefault("engine.cache_ttl_seconds", 300)

	v.SetDefault("model.temperature", 15.0)
	v.SetDefault("model.strength_floor", 5.0)
	v.SetDefault("model.fav_bias_correction", 0.02)

	v.SetDefault("matching.similarity_threshold", 0.85)
	v.SetDefault("matching.ambiguity_margin", 0.05)
	v.SetDefault("matching.scorer", "composite")

	v.SetDefault("dutching.bankroll", 100.0)
	v.SetDefault("dutching.min_runners", 2)
	v.SetDefault("dutching.max_runners", 4)
	v.SetDefault("dutching.min_combined_prob", 0.55)
	v.SetDefault("dutching.strict", false)

	v.SetDefault("feed.base_url", "http://localhost:8081/api")
	v.SetDefault("feed.poll_cron", "@every 2m")
	v.SetDefault("feed.timeout_seconds", 30)
	v.SetDefault("feed.max_retries", 5)
	v.SetDefault("feed.rate_limit_per_second", 10.0)
	v.SetDefault("feed.circuit_breaker_max", 5)
	v.SetDefault("feed.reconnect_max_retries", 10)
	v.SetDefault("feed.reconnect_backoff_milli", 500)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.health_port", 8080)

	v.SetDefault("report.max_races", 15)
	v.SetDefault("report.top_value_picks", 3)
	v.SetDefault("report.output_path", "./output")
}

// ReloadFromEnv reloads the configuration from the path named in
// VALUE_SCANNER_CONFIG_PATH, if set.
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
