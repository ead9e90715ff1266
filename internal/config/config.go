// Package config provides configuration management for the value scanner.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Matching MatchingConfig `mapstructure:"matching" validate:"required"`
	Dutching DutchingConfig `mapstructure:"dutching" validate:"required"`
	Feed     FeedConfig     `mapstructure:"feed" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
	Report   ReportConfig   `mapstructure:"report" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// EngineConfig holds value and edge detection thresholds
type EngineConfig struct {
	ValueThreshold  float64 `mapstructure:"value_threshold" validate:"gte=0,lte=1"`
	DudMargin       float64 `mapstructure:"dud_margin" validate:"gte=0,lte=1"`
	FavOddsMax      float64 `mapstructure:"fav_odds_max" validate:"gte=0"`
	MinModelProb    float64 `mapstructure:"min_model_prob" validate:"gte=0,lte=1"`
	OddsMin         float64 `mapstructure:"odds_min" validate:"gt=1"`
	OddsMax         float64 `mapstructure:"odds_max" validate:"gt=1"`
	MinEdgePercent  float64 `mapstructure:"min_edge_percent" validate:"gte=0,lt=1"`
	FieldMin        int     `mapstructure:"field_min" validate:"gte=2"`
	FieldMax        int     `mapstructure:"field_max" validate:"gte=2"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// ModelConfig holds probability model calibration
type ModelConfig struct {
	Temperature       float64 `mapstructure:"temperature" validate:"gt=0"`
	StrengthFloor     float64 `mapstructure:"strength_floor" validate:"gte=0"`
	FavBiasCorrection float64 `mapstructure:"fav_bias_correction" validate:"gte=0,lte=0.2"`
}

// MatchingConfig holds name reconciliation thresholds
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gt=0,lte=1"`
	AmbiguityMargin     float64 `mapstructure:"ambiguity_margin" validate:"gte=0,lt=1"`
	Scorer              string  `mapstructure:"scorer" validate:"omitempty,oneof=levenshtein token-set composite"`
}

// DutchingConfig holds stake distribution parameters
type DutchingConfig struct {
	Bankroll        float64 `mapstructure:"bankroll" validate:"gt=0"`
	MinRunners      int     `mapstructure:"min_runners" validate:"gte=1"`
	MaxRunners      int     `mapstructure:"max_runners" validate:"gte=1"`
	MinCombinedProb float64 `mapstructure:"min_combined_prob" validate:"gte=0,lte=1"`
	Strict          bool    `mapstructure:"strict"`
}

// FeedConfig represents the odds feed collaborators
type FeedConfig struct {
	BaseURL               string  `mapstructure:"base_url" validate:"required,url"`
	StreamURL             string  `mapstructure:"stream_url"`
	APIKey                string  `mapstructure:"api_key"`
	PollCron              string  `mapstructure:"poll_cron" validate:"required"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxRetries            int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"gt=0"`
	CircuitBreakerMax     int     `mapstructure:"circuit_breaker_max" validate:"gt=0"`
	ReconnectMaxRetries   int     `mapstructure:"reconnect_max_retries" validate:"gte=0"`
	ReconnectBackoffMilli int     `mapstructure:"reconnect_backoff_milli" validate:"gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Port       int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path       string `mapstructure:"path" validate:"required"`
	HealthPort int    `mapstructure:"health_port" validate:"required,min=1,max=65535"`
}

// ReportConfig controls report assembly
type ReportConfig struct {
	MaxRaces      int    `mapstructure:"max_races" validate:"gt=0"`
	TopValuePicks int    `mapstructure:"top_value_picks" validate:"gt=0"`
	OutputPath    string `mapstructure:"output_path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// CacheTTL returns the analysis cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Engine.CacheTTLSeconds) * time.Second
}

// FeedTimeout returns the feed HTTP timeout as a duration
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

// ReconnectBackoff returns the initial stream reconnect backoff
func (c *Config) ReconnectBackoff() time.Duration {
	return time.Duration(c.Feed.ReconnectBackoffMilli) * time.Millisecond
}

// MetricsAddress returns the listen address for the metrics server
func (c *Config) MetricsAddress() string {
	return fmt.Sprintf(":%d", c.Metrics.Port)
}
