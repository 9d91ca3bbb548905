// Package config loads wifiradar settings from defaults, an optional YAML
// file and WIFIRADAR_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lcalzada-xor/wifiradar/internal/core/services/scan"
	"github.com/lcalzada-xor/wifiradar/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g. WIFIRADAR_API_ADDR.
const EnvPrefix = "WIFIRADAR"

// Config holds all application configuration.
type Config struct {
	Logging   logging.Config  `mapstructure:"logging"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Tables    TablesConfig    `mapstructure:"tables"`
	OUI       OUIConfig       `mapstructure:"oui"`
	Storage   StorageConfig   `mapstructure:"storage"`
	API       APIConfig       `mapstructure:"api"`
	Auth      AuthConfig      `mapstructure:"auth"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Schedules []scan.Job      `mapstructure:"schedules"`
}

// ScannerConfig selects the external binaries.
type ScannerConfig struct {
	IwPath       string `mapstructure:"iw_path"`
	IwlistPath   string `mapstructure:"iwlist_path"`
	IwconfigPath string `mapstructure:"iwconfig_path"`
	UseSudo      bool   `mapstructure:"use_sudo"`
	SudoPath     string `mapstructure:"sudo_path"`
}

// ScanConfig tunes scan sessions.
type ScanConfig struct {
	DefaultDuration int           `mapstructure:"default_duration"` // seconds
	Retention       time.Duration `mapstructure:"retention"`
	// Jitter is the spread of the simulated distance noise; 0 disables it.
	Jitter float64 `mapstructure:"jitter"`
}

// TablesConfig points at the optional scoring tables override.
type TablesConfig struct {
	Path       string        `mapstructure:"path"`
	Watch      bool          `mapstructure:"watch"`
	WatchDelay time.Duration `mapstructure:"watch_delay"`
}

// OUIConfig configures vendor resolution.
type OUIConfig struct {
	DBPath    string        `mapstructure:"db_path"`
	CacheSize int           `mapstructure:"cache_size"`
	Source    string        `mapstructure:"source"` // ieee or wireshark
	MaxAge    time.Duration `mapstructure:"max_age"`
	// AutoUpdate downloads the registry again while serving once it is
	// older than MaxAge, checking every UpdateInterval.
	AutoUpdate     bool          `mapstructure:"auto_update"`
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	URL            string        `mapstructure:"url"` // overrides the source's download location
}

// StorageConfig configures scan history.
type StorageConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"` // 0 keeps history forever
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Addr              string        `mapstructure:"addr"`
	CORSOrigins       []string      `mapstructure:"cors_origins"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// AuthConfig configures API key authentication.
type AuthConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	StaticKeyHash string `mapstructure:"static_key_hash"`
}

// GRPCConfig configures the gRPC server.
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Tracing     bool   `mapstructure:"tracing"`
	TraceOutput string `mapstructure:"trace_output"` // file path, stdout when empty
}

// DataDir returns ~/.wifiradar, or the working directory when no home
// directory is available.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".wifiradar")
}

// SetDefaults registers every key with its default value. Keys must be known
// to viper for environment overrides to apply.
func SetDefaults(v *viper.Viper) {
	dir := DataDir()
	lc := logging.DefaultConfig()

	v.SetDefault("logging.level", lc.Level)
	v.SetDefault("logging.format", lc.Format)
	v.SetDefault("logging.output", lc.Output)
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.max_size_mb", lc.MaxSizeMB)
	v.SetDefault("logging.max_backups", lc.MaxBackups)
	v.SetDefault("logging.max_age_days", lc.MaxAgeDays)
	v.SetDefault("logging.compress", false)

	v.SetDefault("scanner.iw_path", "iw")
	v.SetDefault("scanner.iwlist_path", "iwlist")
	v.SetDefault("scanner.iwconfig_path", "iwconfig")
	v.SetDefault("scanner.use_sudo", false)
	v.SetDefault("scanner.sudo_path", "sudo")

	v.SetDefault("scan.default_duration", scan.DefaultDurationSeconds)
	v.SetDefault("scan.retention", scan.DefaultRetention)
	v.SetDefault("scan.jitter", 0.0)

	v.SetDefault("tables.path", "")
	v.SetDefault("tables.watch", true)
	v.SetDefault("tables.watch_delay", 250*time.Millisecond)

	v.SetDefault("oui.db_path", filepath.Join(dir, "oui_database.db"))
	v.SetDefault("oui.cache_size", 1000)
	v.SetDefault("oui.source", "ieee")
	v.SetDefault("oui.max_age", 30*24*time.Hour)
	v.SetDefault("oui.auto_update", false)
	v.SetDefault("oui.update_interval", 24*time.Hour)
	v.SetDefault("oui.url", "")

	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.path", filepath.Join(dir, "history.db"))
	v.SetDefault("storage.retention", time.Duration(0))

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.addr", "127.0.0.1:5000")
	v.SetDefault("api.cors_origins", []string{})
	v.SetDefault("api.rate_limit_requests", 100)
	v.SetDefault("api.rate_limit_window", time.Minute)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.static_key_hash", "")

	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.addr", "127.0.0.1:9000")

	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.trace_output", "")
}

// New returns a viper instance with defaults, env binding and, when path is
// empty, the usual search locations for wifiradar.yaml.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wifiradar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DataDir())
		v.AddConfigPath("/etc/wifiradar")
	}
	return v
}

// Load reads the config file, if any, and decodes v into a Config. A missing
// file is only an error when it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Logging.Format))
	}

	if c.Scan.DefaultDuration < 1 || c.Scan.DefaultDuration > 60 {
		errs = append(errs, fmt.Errorf("scan.default_duration must be between 1 and 60, got %d", c.Scan.DefaultDuration))
	}
	if c.Scan.Jitter < 0 || c.Scan.Jitter >= 1 {
		errs = append(errs, fmt.Errorf("scan.jitter must be in [0, 1), got %v", c.Scan.Jitter))
	}
	if c.OUI.CacheSize < 0 {
		errs = append(errs, errors.New("oui.cache_size must not be negative"))
	}
	switch c.OUI.Source {
	case "ieee", "wireshark":
	default:
		errs = append(errs, fmt.Errorf("oui.source must be ieee or wireshark, got %q", c.OUI.Source))
	}
	if c.OUI.AutoUpdate && c.OUI.DBPath == "" {
		errs = append(errs, errors.New("oui.db_path is required when oui.auto_update is set"))
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required when storage is enabled"))
	}

	if c.API.Enabled {
		if c.API.Addr == "" {
			errs = append(errs, errors.New("api.addr is required when the API is enabled"))
		}
		if c.API.RateLimitRequests <= 0 || c.API.RateLimitWindow <= 0 {
			errs = append(errs, errors.New("api rate limit must be positive"))
		}
	}
	if c.Auth.Enabled && c.Auth.StaticKeyHash == "" && !c.Storage.Enabled {
		errs = append(errs, errors.New("auth needs a static key hash or storage for issued keys"))
	}
	if c.GRPC.Enabled && c.GRPC.Addr == "" {
		errs = append(errs, errors.New("grpc.addr is required when gRPC is enabled"))
	}

	for i, job := range c.Schedules {
		if job.Spec == "" || job.Interface == "" {
			errs = append(errs, fmt.Errorf("schedules[%d]: spec and interface are required", i))
		}
	}
	return errors.Join(errs...)
}
