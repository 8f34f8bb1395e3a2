package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures energy economics, experience rewards, the classifier
// collaborator, storage and the ambient observability settings.
type Config struct {
	Energy     EnergyConfig     `yaml:"energy"`
	Experience ExperienceConfig `yaml:"experience"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Reset cadences for the monthly energy allotment.
const (
	CadenceCalendarMonth = "calendar_month"
	CadenceRolling30d    = "rolling_30d"
)

type EnergyConfig struct {
	// Energy granted to a standard account at every reset
	MonthlyAllotment int `yaml:"monthlyAllotment"`
	// Premium accounts receive MonthlyAllotment * PremiumMultiplier
	PremiumMultiplier int `yaml:"premiumMultiplier"`
	// calendar_month (UTC) or rolling_30d
	ResetCadence string `yaml:"resetCadence"`
	// Cost of spend actions
	SigilCost            int `yaml:"sigilCost"`
	EnergyEngagementCost int `yaml:"energyEngagementCost"`
}

type ExperienceConfig struct {
	// Experience awarded per action name, e.g. post_created, upvote_given, post_upvoted.
	// Actions missing from the map or set to 0 award nothing.
	Actions map[string]int `yaml:"actions"`
}

type ClassifierConfig struct {
	Provider string `yaml:"provider"` // "keyword" or "oracle"
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	// If empty, read from env ORACLE_API_KEY
	APIKey string  `yaml:"apiKey"`
	RPS    float64 `yaml:"rps"`
	Burst  int     `yaml:"burst"`
	// Optional category used when the classifier returns an out-of-domain value.
	// Empty means such posts are rejected.
	Fallback string `yaml:"fallback"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type CacheConfig struct {
	// Redis address or URL. Empty disables the feed cache.
	RedisAddr string `yaml:"redisAddr"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Energy: EnergyConfig{
			MonthlyAllotment:     1000,
			PremiumMultiplier:    5,
			ResetCadence:         CadenceCalendarMonth,
			SigilCost:            100,
			EnergyEngagementCost: 10,
		},
		Experience: ExperienceConfig{Actions: map[string]int{
			"post_created":    10,
			"upvote_given":    1,
			"downvote_given":  1,
			"like_given":      1,
			"energy_given":    5,
			"post_upvoted":    10,
			"post_liked":      5,
			"post_energized":  15,
			"sigil_generated": 20,
		}},
		Classifier: ClassifierConfig{Provider: "keyword", Model: "gpt-4o-mini", RPS: 2, Burst: 5},
		Storage:    StorageConfig{DBPath: "./ascended.db"},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("ASCENDED_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = os.Getenv("REDIS_URL")
	}
	if c.Classifier.APIKey == "" && c.Classifier.Provider == "oracle" {
		c.Classifier.APIKey = os.Getenv("ORACLE_API_KEY")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Energy.MonthlyAllotment < 0 {
		errs = append(errs, fmt.Errorf("energy.monthlyAllotment must be >= 0, got %d", c.Energy.MonthlyAllotment))
	}
	if c.Energy.PremiumMultiplier < 1 {
		errs = append(errs, fmt.Errorf("energy.premiumMultiplier must be >= 1, got %d", c.Energy.PremiumMultiplier))
	}
	switch c.Energy.ResetCadence {
	case CadenceCalendarMonth, CadenceRolling30d:
	default:
		errs = append(errs, fmt.Errorf("energy.resetCadence %q is not one of %s, %s", c.Energy.ResetCadence, CadenceCalendarMonth, CadenceRolling30d))
	}
	if c.Energy.SigilCost < 0 || c.Energy.EnergyEngagementCost < 0 {
		errs = append(errs, errors.New("energy costs must be >= 0"))
	}
	for action, xp := range c.Experience.Actions {
		if xp < 0 {
			errs = append(errs, fmt.Errorf("experience.actions[%s] must be >= 0, got %d", action, xp))
		}
	}
	switch c.Classifier.Provider {
	case "keyword":
	case "oracle":
		if c.Classifier.Endpoint == "" {
			errs = append(errs, errors.New("classifier.endpoint is required for the oracle provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("classifier.provider %q is not one of keyword, oracle", c.Classifier.Provider))
	}
	return errors.Join(errs...)
}

// Load reads YAML config from path. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
