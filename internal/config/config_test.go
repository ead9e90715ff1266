package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

func TestLoadWithDefaultsNoFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "value-scanner", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 0.03, cfg.Engine.ValueThreshold)
	assert.Equal(t, 0.05, cfg.Engine.DudMargin)
	assert.Equal(t, 5.0, cfg.Engine.FavOddsMax)
	assert.Equal(t, 15.0, cfg.Model.Temperature)
	assert.Equal(t, 0.85, cfg.Matching.SimilarityThreshold)
	assert.Equal(t, 100.0, cfg.Dutching.Bankroll)
	assert.Equal(t, "@every 2m", cfg.Feed.PollCron)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())

	require.NoError(t, Validate(cfg))
}

func TestLoadWithDefaultsFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  name: value-scanner
  environment: staging
  log_level: debug
engine:
  value_threshold: 0.05
dutching:
  bankroll: 250
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadWithDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, 0.05, cfg.Engine.ValueThreshold)
	assert.Equal(t, 250.0, cfg.Dutching.Bankroll)
	// Untouched fields keep their defaults
	assert.Equal(t, 0.05, cfg.Engine.DudMargin)
	assert.True(t, cfg.IsStaging())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_FEED_KEY", "live-key-abc123")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
feed:
  api_key: ${TEST_FEED_KEY}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadWithDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "live-key-abc123", cfg.Feed.APIKey)
}

func TestValidateCrossField(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Engine.OddsMin = 30.0
	cfg.Engine.OddsMax = 1.5
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Engine.FieldMin = 12
	cfg.Engine.FieldMax = 4
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Matching.AmbiguityMargin = 0.9
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Dutching.MinRunners = 5
	cfg.Dutching.MaxRunners = 2
	assert.Error(t, Validate(cfg))
}

func TestValidateProductionCredentials(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.App.Environment = "production"

	cfg.Feed.APIKey = ""
	assert.Error(t, Validate(cfg), "production requires an API key")

	cfg.Feed.APIKey = "test-key-123"
	assert.Error(t, Validate(cfg), "placeholder keys are rejected in production")

	cfg.Feed.APIKey = "pk-8f3a2b1c9d"
	assert.NoError(t, Validate(cfg))
}

func TestValidateEnumFields(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.App.Environment = "qa"
	assert.Error(t, Validate(cfg))

	cfg.App.Environment = "development"
	cfg.App.LogLevel = "verbose"
	assert.Error(t, Validate(cfg))
}

func TestParseSecretData(t *testing.T) {
	payload := `{"feed_api_key":"pk-live","feed_stream_url":"wss://stream.example.com/odds"}`
	secrets, err := parseSecretData(&secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(payload),
	})
	require.NoError(t, err)
	assert.Equal(t, "pk-live", secrets.FeedAPIKey)
	assert.Equal(t, "wss://stream.example.com/odds", secrets.FeedStreamURL)

	_, err = parseSecretData(&secretsmanager.GetSecretValueOutput{})
	assert.Error(t, err)
}

func TestOverlaySecrets(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Feed.APIKey = "old"

	overlaySecretsOnConfig(cfg, &SecretsOverlay{FeedAPIKey: "new"})
	assert.Equal(t, "new", cfg.Feed.APIKey)

	// Empty secret fields leave config untouched
	overlaySecretsOnConfig(cfg, &SecretsOverlay{})
	assert.Equal(t, "new", cfg.Feed.APIKey)
}
