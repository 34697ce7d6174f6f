package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Capture   CaptureConfig   `yaml:"capture"`
	Pose      PoseConfig      `yaml:"pose"`
	Workouts  WorkoutsConfig  `yaml:"workouts"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type CaptureConfig struct {
	// Source is a file:///dir of still images or an http(s) MJPEG feed.
	Source      string        `yaml:"source"`
	Loop        bool          `yaml:"loop"`
	Interval    time.Duration `yaml:"interval"`
	JPEGQuality int           `yaml:"jpeg_quality"`
}

type PoseConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	MinVisibility float64       `yaml:"min_visibility"`
}

type WorkoutsConfig struct {
	Timezone        string `yaml:"timezone"`
	StrictExercises bool   `yaml:"strict_exercises"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves workouts.timezone; validate has already checked it.
func (w WorkoutsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix REPTRACK_ and underscore-separated paths:
//
//	REPTRACK_SERVER_HOST, REPTRACK_SERVER_PORT,
//	REPTRACK_DB_DRIVER, REPTRACK_DB_HOST, REPTRACK_DB_PORT, REPTRACK_DB_NAME,
//	REPTRACK_DB_USER, REPTRACK_DB_PASSWORD, REPTRACK_DB_SSLMODE, REPTRACK_DB_PATH,
//	REPTRACK_TAILSCALE_ENABLED, REPTRACK_CAPTURE_SOURCE, REPTRACK_POSE_ENDPOINT,
//	REPTRACK_WORKOUTS_TIMEZONE, REPTRACK_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: DatabaseConfig{Driver: DriverPostgres, Path: "data/reptrack.db"},
		Tailscale: TailscaleConfig{
			Hostname: "reptrack",
			StateDir: "data/tsnet",
		},
		Capture:  CaptureConfig{JPEGQuality: 80},
		Pose:     PoseConfig{Timeout: 5 * time.Second, MinVisibility: 0.5},
		Workouts: WorkoutsConfig{Timezone: "Europe/Berlin"},
		Log:      LogConfig{Level: "info", Format: "text", MaxSizeMB: 50, MaxBackups: 3},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	flag := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("REPTRACK_SERVER_HOST", &cfg.Server.Host)
	num("REPTRACK_SERVER_PORT", &cfg.Server.Port)
	str("REPTRACK_DB_DRIVER", &cfg.Database.Driver)
	str("REPTRACK_DB_HOST", &cfg.Database.Host)
	num("REPTRACK_DB_PORT", &cfg.Database.Port)
	str("REPTRACK_DB_NAME", &cfg.Database.Name)
	str("REPTRACK_DB_USER", &cfg.Database.User)
	str("REPTRACK_DB_PASSWORD", &cfg.Database.Password)
	str("REPTRACK_DB_SSLMODE", &cfg.Database.SSLMode)
	str("REPTRACK_DB_PATH", &cfg.Database.Path)
	flag("REPTRACK_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	str("REPTRACK_CAPTURE_SOURCE", &cfg.Capture.Source)
	str("REPTRACK_POSE_ENDPOINT", &cfg.Pose.Endpoint)
	str("REPTRACK_WORKOUTS_TIMEZONE", &cfg.Workouts.Timezone)
	str("REPTRACK_LOG_LEVEL", &cfg.Log.Level)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture.jpeg_quality must be in 1..100")
	}
	if c.Pose.MinVisibility < 0 || c.Pose.MinVisibility > 1 {
		return fmt.Errorf("pose.min_visibility must be in 0..1")
	}
	if _, err := time.LoadLocation(c.Workouts.Timezone); err != nil {
		return fmt.Errorf("workouts.timezone: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// RequireStream checks the settings only the serve command needs.
func (c *Config) RequireStream() error {
	if c.Capture.Source == "" {
		return fmt.Errorf("capture.source is required")
	}
	if c.Pose.Endpoint == "" {
		return fmt.Errorf("pose.endpoint is required")
	}
	return nil
}
