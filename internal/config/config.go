package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Organization struct {
		Name     string `yaml:"name"`
		Timezone string `yaml:"timezone"`
	} `yaml:"organization"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
		// Requests per second across all clients; burst rides on top.
		RateLimit float64 `yaml:"rate_limit"`
		RateBurst int     `yaml:"rate_burst"`
	} `yaml:"server"`

	Scheduling struct {
		SlotStepMinutes int `yaml:"slot_step_minutes"`
		LeadTimeMinutes int `yaml:"lead_time_minutes"`
		HorizonDays     int `yaml:"horizon_days"`
	} `yaml:"scheduling"`

	Client struct {
		BaseURL         string `yaml:"base_url"`
		DebounceMs      int    `yaml:"debounce_ms"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
		ScanDays        int    `yaml:"scan_days"`
	} `yaml:"client"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/zapis.db"
	}
	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves the organization timezone. All wall-clock math
// happens in this single location.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Organization.Timezone
	if tz == "" {
		tz = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

func (c *Config) SlotStepMinutes() int {
	if c.Scheduling.SlotStepMinutes <= 0 {
		return 10
	}
	return c.Scheduling.SlotStepMinutes
}

func (c *Config) LeadTimeMinutes() int {
	if c.Scheduling.LeadTimeMinutes <= 0 {
		return 60
	}
	return c.Scheduling.LeadTimeMinutes
}

func (c *Config) HorizonDays() int {
	if c.Scheduling.HorizonDays <= 0 {
		return 60
	}
	return c.Scheduling.HorizonDays
}

func (c *Config) ServerPort() int {
	if c.Server.Port == 0 {
		return 8080
	}
	return c.Server.Port
}

func (c *Config) ClientDebounce() time.Duration {
	if c.Client.DebounceMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Client.DebounceMs) * time.Millisecond
}

func (c *Config) ClientCacheTTL() time.Duration {
	if c.Client.CacheTTLSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Client.CacheTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) ClientScanDays() int {
	if c.Client.ScanDays <= 0 {
		return 14
	}
	return c.Client.ScanDays
}
