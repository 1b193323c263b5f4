package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	HubSpot   HubSpotConfig   `yaml:"hubspot" mapstructure:"hubspot"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Qualify   QualifyConfig   `yaml:"qualify" mapstructure:"qualify"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings for the qualification pipeline.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	ResearchMaxTokens int64   `yaml:"research_max_tokens" mapstructure:"research_max_tokens"`
	ScoringMaxTokens  int64   `yaml:"scoring_max_tokens" mapstructure:"scoring_max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
}

// HubSpotConfig holds HubSpot API settings. An empty token switches CRM sync
// into simulation mode.
type HubSpotConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// CacheConfig configures the in-process TTL cache.
type CacheConfig struct {
	DefaultTTL      time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	AnalyticsTTL    time.Duration `yaml:"analytics_ttl" mapstructure:"analytics_ttl"`
	ResearchTTL     time.Duration `yaml:"research_ttl" mapstructure:"research_ttl"`
}

// BatchConfig configures batch qualification.
type BatchConfig struct {
	Size          int           `yaml:"size" mapstructure:"size"`
	ItemTimeout   time.Duration `yaml:"item_timeout" mapstructure:"item_timeout"`
	MaxUploadRows int           `yaml:"max_upload_rows" mapstructure:"max_upload_rows"`
}

// QualifyConfig configures scoring policy.
type QualifyConfig struct {
	ScoreThreshold int    `yaml:"score_threshold" mapstructure:"score_threshold"`
	RubricPath     string `yaml:"rubric_path" mapstructure:"rubric_path"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	StreamInterval time.Duration `yaml:"stream_interval" mapstructure:"stream_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTBOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about. Credentials
	// have no default, so bind them explicitly.
	v.BindEnv("anthropic.key") //nolint:errcheck
	v.BindEnv("hubspot.token") //nolint:errcheck

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.stream_interval", 10*time.Second)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.research_max_tokens", 1024)
	v.SetDefault("anthropic.scoring_max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.rate_limit_rps", 4)
	v.SetDefault("cache.default_ttl", time.Minute)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.analytics_ttl", time.Minute)
	v.SetDefault("cache.research_ttl", 24*time.Hour)
	v.SetDefault("batch.size", 10)
	v.SetDefault("batch.item_timeout", 30*time.Second)
	v.SetDefault("batch.max_upload_rows", 1000)
	v.SetDefault("qualify.score_threshold", 7)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports missing credentials without failing the load. CRM sync
// degrades to simulation mode without a HubSpot token; qualification refuses
// to run without an Anthropic key.
func (c *Config) Validate() []string {
	var errs []string
	if c.Anthropic.Key == "" {
		errs = append(errs, "OUTBOUND_ANTHROPIC_KEY is not configured")
	}
	if c.HubSpot.Token == "" {
		errs = append(errs, "OUTBOUND_HUBSPOT_TOKEN is not configured")
	}
	return errs
}

// Redacted returns a copy safe for display, with secrets masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Anthropic.Key != "" {
		out.Anthropic.Key = "***"
	}
	if out.HubSpot.Token != "" {
		out.HubSpot.Token = "***"
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
