package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/travigo/livetreinen/pkg/util"
	"gopkg.in/yaml.v3"
)

// MaxCacheTTL is the longest lifetime the cache store accepts for an entry.
const MaxCacheTTL = time.Hour

const (
	DefaultTrainPositionsURL = "https://gateway.apiportal.ns.nl/virtual-train-api/api/vehicle?lat=0&lng=0&features=trein"
	DefaultJourneyURL        = "https://gateway.apiportal.ns.nl/reisinformatie-api/api/v2/journey"
	DefaultStationsURL       = "https://gateway.apiportal.ns.nl/reisinformatie-api/api/v2/stations"
)

// APIKeyVariable is the process environment variable holding the NS subscription key.
const APIKeyVariable = "NS_API_KEY"

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type NSAPIConfig struct {
	TrainPositionsURL   string        `yaml:"train_positions_url"`
	JourneyURL          string        `yaml:"journey_url"`
	StationsURL         string        `yaml:"stations_url"`
	MaxRetries          int           `yaml:"max_retries"`
	Timeout             time.Duration `yaml:"timeout"`
	ConditionalRequests bool          `yaml:"conditional_requests"`
}

type CacheTTLConfig struct {
	Default        time.Duration `yaml:"default"`
	TrainPositions time.Duration `yaml:"train_positions"`
	JourneyDetails time.Duration `yaml:"journey_details"`
	Stations       time.Duration `yaml:"stations"`
	ConfigSettings time.Duration `yaml:"config_settings"`
	TrainStats     time.Duration `yaml:"train_stats"`
}

type StatsConfig struct {
	Enabled          bool `yaml:"enabled"`
	MaxHistoryPoints int  `yaml:"max_history_points"`
	Workers          int  `yaml:"workers"`
	Background       bool `yaml:"background"`
}

type Config struct {
	Listen   string         `yaml:"listen"`
	Redis    RedisConfig    `yaml:"redis"`
	NSAPI    NSAPIConfig    `yaml:"ns_api"`
	CacheTTL CacheTTLConfig `yaml:"cache_ttl"`
	Stats    StatsConfig    `yaml:"stats"`
}

func Default() *Config {
	return &Config{
		Listen: ":8080",
		NSAPI: NSAPIConfig{
			TrainPositionsURL:   DefaultTrainPositionsURL,
			JourneyURL:          DefaultJourneyURL,
			StationsURL:         DefaultStationsURL,
			MaxRetries:          2,
			Timeout:             30 * time.Second,
			ConditionalRequests: true,
		},
		CacheTTL: CacheTTLConfig{
			Default:        15 * time.Second,
			TrainPositions: 15 * time.Second,
			JourneyDetails: 30 * time.Second,
			Stations:       time.Hour,
			ConfigSettings: time.Hour,
			TrainStats:     time.Hour,
		},
		Stats: StatsConfig{
			Enabled:          true,
			MaxHistoryPoints: 100,
			Workers:          8,
			Background:       true,
		},
	}
}

// Load reads the optional YAML file at path on top of the defaults and then applies
// the LIVETREINEN_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvironment(util.GetEnvironmentVariables()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["LIVETREINEN_LISTEN"] != "" {
		c.Listen = env["LIVETREINEN_LISTEN"]
	}

	if env["LIVETREINEN_REDIS_ADDRESS"] != "" {
		c.Redis.Address = env["LIVETREINEN_REDIS_ADDRESS"]
	}

	if env["LIVETREINEN_REDIS_PASSWORD"] != "" {
		c.Redis.Password = env["LIVETREINEN_REDIS_PASSWORD"]
	}

	if env["LIVETREINEN_REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["LIVETREINEN_REDIS_DATABASE"])
		if err != nil {
			return fmt.Errorf("LIVETREINEN_REDIS_DATABASE: %w", err)
		}
		c.Redis.Database = n
	}

	if value, ok := env["LIVETREINEN_STATS_ENABLED"]; ok && value != "" {
		c.Stats.Enabled = util.IsEnabled(value)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.NSAPI.MaxRetries < 0 {
		return errors.New("ns_api: max_retries must not be negative")
	}
	if c.NSAPI.TrainPositionsURL == "" || c.NSAPI.JourneyURL == "" || c.NSAPI.StationsURL == "" {
		return errors.New("ns_api: train_positions_url, journey_url and stations_url are required")
	}

	ttls := map[string]time.Duration{
		"default":         c.CacheTTL.Default,
		"train_positions": c.CacheTTL.TrainPositions,
		"journey_details": c.CacheTTL.JourneyDetails,
		"stations":        c.CacheTTL.Stations,
		"config_settings": c.CacheTTL.ConfigSettings,
		"train_stats":     c.CacheTTL.TrainStats,
	}
	for name, ttl := range ttls {
		if ttl <= 0 || ttl > MaxCacheTTL {
			return fmt.Errorf("cache_ttl: %s must be between 0 and %s, got %s", name, MaxCacheTTL, ttl)
		}
	}

	if c.Stats.Enabled && (c.Stats.MaxHistoryPoints <= 0 || c.Stats.Workers <= 0) {
		return errors.New("stats: max_history_points and workers must be positive")
	}

	return nil
}
