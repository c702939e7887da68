package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// EnvPrefix is the prefix for all environment variables read by neurodash.
const EnvPrefix = "NEURODASH"

// Config holds the configuration for the neurodash server and its dependencies.
type Config struct {
	// Listen is the address the HTTP server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// LogLevel is the default log level, overridden by the --log-level flag.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Database holds the record store configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Auth holds the token configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Analysis holds the configuration of the external text analysis service.
	Analysis *AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	// Generator holds the signal generator cadence.
	Generator *GeneratorConfig `yaml:"generator" mapstructure:"generator"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// DSN selects the backend. postgres:// and postgresql:// URLs use postgres,
	// anything else is treated as a sqlite file path.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// AuthConfig holds the token configuration.
type AuthConfig struct {
	// Secret is the HMAC key used to sign tokens.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// CookieName is the name of the cookie that may carry the token.
	CookieName string `yaml:"cookie_name" mapstructure:"cookie_name"`
	// CookieSecure marks the token cookie as https only.
	CookieSecure bool `yaml:"cookie_secure" mapstructure:"cookie_secure"`
	// EnforceOwnership rejects requests whose target user differs from the token identity.
	EnforceOwnership bool `yaml:"enforce_ownership" mapstructure:"enforce_ownership"`
}

// AnalysisConfig holds the configuration of the chat completion service.
type AnalysisConfig struct {
	// APIKey is optional. Without it the interpreting endpoints fail and nothing else is affected.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// BaseURL is the base URL of the OpenAI compatible API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Model is the model name sent with every request.
	Model string `yaml:"model" mapstructure:"model"`
	// Timeout bounds a single upstream call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RequestsPerMinute limits upstream calls across all users.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// GeneratorConfig holds the signal generator configuration.
type GeneratorConfig struct {
	// MetricsInterval is the tick interval of the scalar random walk.
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
	// WaveformInterval is the tick interval of the waveform buffers.
	WaveformInterval time.Duration `yaml:"waveform_interval" mapstructure:"waveform_interval"`
	// BufferSize is the number of points kept per waveform band.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long cached settings are kept.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()

	// required keys have no default, so AutomaticEnv alone would never see them
	bindRequiredEnv(v)

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.neurodash")
		v.AddConfigPath("/etc/neurodash")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3002")
	v.SetDefault("log_level", "info")

	// Auth defaults
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.cookie_name", "auth_token")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.enforce_ownership", true)

	// Analysis defaults
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.base_url", "https://api.openai.com/v1")
	v.SetDefault("analysis.model", "gpt-4o-mini")
	v.SetDefault("analysis.timeout", 30*time.Second)
	v.SetDefault("analysis.requests_per_minute", 30)

	// Generator defaults
	v.SetDefault("generator.metrics_interval", 2*time.Second)
	v.SetDefault("generator.waveform_interval", 250*time.Millisecond)
	v.SetDefault("generator.buffer_size", 50)

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
}

func bindRequiredEnv(v *viper.Viper) {
	v.MustBindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN")
	v.MustBindEnv("auth.secret", EnvPrefix+"_AUTH_SECRET")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing neurodash config")
	}

	if c.Database == nil || c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set %s_DATABASE_DSN)", EnvPrefix)
	}

	if c.Auth == nil || c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required (set %s_AUTH_SECRET)", EnvPrefix)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be positive")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth cookie name is required")
	}

	if c.Analysis == nil {
		c.Analysis = &AnalysisConfig{}
	}
	if c.Analysis.APIKey == "" {
		log.Warn("no analysis API key configured, dream interpretation, chat and mood analysis will fail")
	}

	if c.Generator == nil {
		return fmt.Errorf("missing generator config")
	}
	if c.Generator.MetricsInterval <= 0 || c.Generator.WaveformInterval <= 0 {
		return fmt.Errorf("generator intervals must be positive")
	}
	if c.Generator.BufferSize <= 0 {
		return fmt.Errorf("generator buffer size must be greater than 0")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	return nil
}

func sanitizeConfig(c *Config) {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Database != nil {
		c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	}
	if c.Analysis != nil {
		c.Analysis.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Analysis.BaseURL), "/")
	}
	if c.Cache != nil {
		c.Cache.Type = CacheType(strings.ToLower(string(c.Cache.Type)))
	}
}
