package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Energy.MonthlyAllotment)
	assert.Equal(t, 5, cfg.Energy.PremiumMultiplier)
	assert.Equal(t, CadenceCalendarMonth, cfg.Energy.ResetCadence)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ascended.yaml")
	cfg := Default()
	cfg.Energy.PremiumMultiplier = 3
	cfg.Classifier.Fallback = "heart"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Energy.PremiumMultiplier)
	assert.Equal(t, "heart", got.Classifier.Fallback)
	assert.Equal(t, 10, got.Experience.Actions["post_created"])
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("energy:\n  sigilCost: 250\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Energy.SigilCost)
	assert.Equal(t, 1000, cfg.Energy.MonthlyAllotment)
	assert.Equal(t, "keyword", cfg.Classifier.Provider)
}

func TestSaveRejectsEmptyPath(t *testing.T) {
	assert.Error(t, Save("", Default()))
}

func TestResolveEnv(t *testing.T) {
	t.Run("oracle key only read for oracle provider", func(t *testing.T) {
		t.Setenv("ORACLE_API_KEY", "secret")
		cfg := Default()
		cfg.ResolveEnv()
		assert.Empty(t, cfg.Classifier.APIKey)

		cfg.Classifier.Provider = "oracle"
		cfg.ResolveEnv()
		assert.Equal(t, "secret", cfg.Classifier.APIKey)
	})

	t.Run("db path and log level override", func(t *testing.T) {
		t.Setenv("ASCENDED_DB_PATH", "/tmp/other.db")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		cfg := Default()
		cfg.ResolveEnv()
		assert.Equal(t, "/tmp/other.db", cfg.Storage.DBPath)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisAddr)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative allotment", func(c *Config) { c.Energy.MonthlyAllotment = -1 }},
		{"zero multiplier", func(c *Config) { c.Energy.PremiumMultiplier = 0 }},
		{"unknown cadence", func(c *Config) { c.Energy.ResetCadence = "weekly" }},
		{"negative cost", func(c *Config) { c.Energy.SigilCost = -5 }},
		{"negative xp", func(c *Config) { c.Experience.Actions["like_given"] = -1 }},
		{"oracle without endpoint", func(c *Config) { c.Classifier.Provider = "oracle" }},
		{"unknown provider", func(c *Config) { c.Classifier.Provider = "tarot" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
