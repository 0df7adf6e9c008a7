package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/weblate-settings/internal/probe"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port         string        `yaml:"port"`
	DataDir      string        `yaml:"data_dir"`
	BaseDir      string        `yaml:"base_dir"`
	OverrideFile string        `yaml:"override_file"`
	EnvFile      string        `yaml:"env_file"`
	CheckTimeout time.Duration `yaml:"check_timeout"`
	Watch        bool          `yaml:"watch"`

	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
	CORSAllowedOrigins   []string      `yaml:"cors_allowed_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// yamlConfig represents the YAML configuration file structure. Pointers
// distinguish an absent key from a zero value.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	DataDir              string        `yaml:"data_dir"`
	BaseDir              string        `yaml:"base_dir"`
	OverrideFile         string        `yaml:"override_file"`
	EnvFile              string        `yaml:"env_file"`
	CheckTimeout         string        `yaml:"check_timeout"`
	Watch                *bool         `yaml:"watch"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	CORSAllowedOrigins   []string      `yaml:"cors_allowed_origins"`
	Log                  yamlLog       `yaml:"log"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	DataDir        *string
	BaseDir        *string
	OverrideFile   *string
	EnvFile        *string
	CheckTimeout   *time.Duration
	Watch          *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
	LogFormat      *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment first so the YAML file can override it.
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SettingsOptions returns the resolver options derived from cfg.
func (c Config) SettingsOptions() settings.Options {
	return settings.Options{
		DataDir: c.DataDir,
		BaseDir: c.BaseDir,
	}
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		DataDir:              settings.DefaultDataDir,
		BaseDir:              settings.DefaultBaseDir,
		CheckTimeout:         probe.DefaultTimeout,
		Watch:                true,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		LogFormat:            defaultLogFormat,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	setString(&cfg.Port, yamlCfg.Port)
	setString(&cfg.DataDir, yamlCfg.DataDir)
	setString(&cfg.BaseDir, yamlCfg.BaseDir)
	setString(&cfg.OverrideFile, yamlCfg.OverrideFile)
	setString(&cfg.EnvFile, yamlCfg.EnvFile)
	setString(&cfg.LogLevel, yamlCfg.Log.Level)
	setString(&cfg.LogFormat, yamlCfg.Log.Format)

	var errs error
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"check_timeout", yamlCfg.CheckTimeout, &cfg.CheckTimeout},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := parseDuration(d.raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.key, err))
			continue
		}
		*d.dst = value
	}

	if yamlCfg.Watch != nil {
		cfg.Watch = *yamlCfg.Watch
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if len(yamlCfg.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = yamlCfg.CORSAllowedOrigins
	}

	return errs
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.DataDir, getenv("SETTINGS_DATA_DIR"))
	setString(&cfg.BaseDir, getenv("SETTINGS_BASE_DIR"))
	setString(&cfg.OverrideFile, getenv("SETTINGS_OVERRIDE_FILE"))
	setString(&cfg.EnvFile, getenv("SETTINGS_ENV_FILE"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	setString(&cfg.LogFormat, getenv("LOG_FORMAT"))

	if raw := getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		cfg.CORSAllowedOrigins = splitList(raw)
	}

	var errs error
	if raw := getenv("SETTINGS_CHECK_TIMEOUT"); raw != "" {
		value, err := parseDuration(raw)
		errs = multierr.Append(errs, envError("SETTINGS_CHECK_TIMEOUT", err))
		if err == nil {
			cfg.CheckTimeout = value
		}
	}
	if raw := getenv("SETTINGS_WATCH"); raw != "" {
		value, err := cast.ToBoolE(raw)
		errs = multierr.Append(errs, envError("SETTINGS_WATCH", err))
		if err == nil {
			cfg.Watch = value
		}
	}
	if raw := getenv("RATE_LIMIT_RPS"); raw != "" {
		value, err := cast.ToFloat64E(raw)
		errs = multierr.Append(errs, envError("RATE_LIMIT_RPS", err))
		if err == nil {
			cfg.RateLimitRPS = value
		}
	}
	if raw := getenv("RATE_LIMIT_BURST"); raw != "" {
		value, err := cast.ToIntE(raw)
		errs = multierr.Append(errs, envError("RATE_LIMIT_BURST", err))
		if err == nil {
			cfg.RateLimitBurst = value
		}
	}
	return errs
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	setStringPtr(&cfg.Port, overrides.Port)
	setStringPtr(&cfg.DataDir, overrides.DataDir)
	setStringPtr(&cfg.BaseDir, overrides.BaseDir)
	setStringPtr(&cfg.OverrideFile, overrides.OverrideFile)
	setStringPtr(&cfg.EnvFile, overrides.EnvFile)
	setStringPtr(&cfg.LogLevel, overrides.LogLevel)
	setStringPtr(&cfg.LogFormat, overrides.LogFormat)

	if overrides.CheckTimeout != nil && *overrides.CheckTimeout > 0 {
		cfg.CheckTimeout = *overrides.CheckTimeout
	}
	if overrides.Watch != nil {
		cfg.Watch = *overrides.Watch
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	var errs error
	if cfg.RateLimitRPS < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: rate limit rps must be >= 0", ErrInvalid))
	}
	if cfg.RateLimitBurst < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: rate limit burst must be >= 0", ErrInvalid))
	}
	if cfg.CheckTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: check timeout must be positive", ErrInvalid))
	}
	if cfg.DataDir == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: data dir cannot be empty", ErrInvalid))
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		errs = multierr.Append(errs, fmt.Errorf("%w: log format must be json or console, got %q", ErrInvalid, cfg.LogFormat))
	}
	return errs
}

// parseDuration reads a Go duration string. A bare number is a count of
// seconds.
func parseDuration(raw string) (time.Duration, error) {
	if seconds, err := cast.ToFloat64E(raw); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

func envError(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setStringPtr(dst *string, value *string) {
	if value != nil {
		setString(dst, *value)
	}
}
