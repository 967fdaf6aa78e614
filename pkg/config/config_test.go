package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}

	if cfg.NSAPI.MaxRetries != 2 {
		t.Fatalf("MaxRetries=%d, want 2", cfg.NSAPI.MaxRetries)
	}
	if cfg.CacheTTL.TrainPositions != 15*time.Second {
		t.Fatalf("TrainPositions ttl=%s, want 15s", cfg.CacheTTL.TrainPositions)
	}
	if !cfg.Stats.Background {
		t.Fatalf("Stats.Background=false, want recording off the request path by default")
	}
	if cfg.NSAPI.TrainPositionsURL != DefaultTrainPositionsURL {
		t.Fatalf("TrainPositionsURL=%q", cfg.NSAPI.TrainPositionsURL)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
ns_api:
  max_retries: 4
  timeout: 5s
cache_ttl:
  journey_details: 45s
stats:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}

	if cfg.Listen != ":9090" {
		t.Fatalf("Listen=%q, want :9090", cfg.Listen)
	}
	if cfg.NSAPI.MaxRetries != 4 || cfg.NSAPI.Timeout != 5*time.Second {
		t.Fatalf("NSAPI=%+v", cfg.NSAPI)
	}
	if cfg.CacheTTL.JourneyDetails != 45*time.Second {
		t.Fatalf("JourneyDetails ttl=%s, want 45s", cfg.CacheTTL.JourneyDetails)
	}
	if cfg.CacheTTL.TrainPositions != 15*time.Second {
		t.Fatalf("TrainPositions ttl=%s, want default 15s", cfg.CacheTTL.TrainPositions)
	}
	if cfg.Stats.Enabled {
		t.Fatalf("Stats.Enabled=true, want false")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LIVETREINEN_LISTEN", ":7000")
	t.Setenv("LIVETREINEN_REDIS_ADDRESS", "cache:6379")
	t.Setenv("LIVETREINEN_REDIS_DATABASE", "3")
	t.Setenv("LIVETREINEN_STATS_ENABLED", "NO")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}

	if cfg.Listen != ":7000" {
		t.Fatalf("Listen=%q", cfg.Listen)
	}
	if cfg.Redis.Address != "cache:6379" || cfg.Redis.Database != 3 {
		t.Fatalf("Redis=%+v", cfg.Redis)
	}
	if cfg.Stats.Enabled {
		t.Fatalf("Stats.Enabled=true, want false")
	}
}

func TestLoad_InvalidRedisDatabase(t *testing.T) {
	t.Setenv("LIVETREINEN_REDIS_DATABASE", "zero")

	if _, err := Load(""); err == nil {
		t.Fatalf("Load() err=nil, want error")
	}
}

func TestValidate_RejectsTTLAboveOneHour(t *testing.T) {
	cfg := Default()
	cfg.CacheTTL.Stations = 2 * time.Hour

	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() err=nil, want error")
	}
}

func TestValidate_RejectsNegativeRetries(t *testing.T) {
	cfg := Default()
	cfg.NSAPI.MaxRetries = -1

	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() err=nil, want error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() err=nil, want error")
	}
}
