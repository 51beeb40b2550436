package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Parser  ParserConfig  `yaml:"parser" mapstructure:"parser"`
	Tracker TrackerConfig `yaml:"tracker" mapstructure:"tracker"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Primary PrimaryConfig `yaml:"primary" mapstructure:"primary"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CacheConfig configures the name cache.
type CacheConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	MaxMemory         int  `yaml:"max_memory" mapstructure:"max_memory"`
	TTLHours          int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	FlushBatchSize    int  `yaml:"flush_batch_size" mapstructure:"flush_batch_size"`
	FlushIntervalSecs int  `yaml:"flush_interval_secs" mapstructure:"flush_interval_secs"`
}

// StoreConfig configures the persistent cache tier.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ParserConfig configures the fallback parser.
type ParserConfig struct {
	DefaultNameOrder string `yaml:"default_name_order" mapstructure:"default_name_order"`
	JointNamePolicy  string `yaml:"joint_name_policy" mapstructure:"joint_name_policy"`
	NameTablesPath   string `yaml:"name_tables_path" mapstructure:"name_tables_path"`
}

// TrackerConfig configures confidence warnings.
type TrackerConfig struct {
	LowConfidence     float64 `yaml:"low_confidence" mapstructure:"low_confidence"`
	VeryLowConfidence float64 `yaml:"very_low_confidence" mapstructure:"very_low_confidence"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// PrimaryConfig configures calls into an optional primary parser.
type PrimaryConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	FailureThreshold  int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs  int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// RetryConfig configures retries of persistent store writes.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TIDYFRAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_memory", 5000)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.flush_batch_size", 50)
	v.SetDefault("cache.flush_interval_secs", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tidyframe-cache.db")
	v.SetDefault("parser.default_name_order", "last_first")
	v.SetDefault("parser.joint_name_policy", "first_listed")
	v.SetDefault("parser.name_tables_path", "")
	v.SetDefault("tracker.low_confidence", 0.7)
	v.SetDefault("tracker.very_low_confidence", 0.5)
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("primary.enabled", false)
	v.SetDefault("primary.timeout_secs", 10)
	v.SetDefault("primary.requests_per_second", 5)
	v.SetDefault("primary.failure_threshold", 5)
	v.SetDefault("primary.reset_timeout_secs", 30)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("retry.max_backoff_ms", 5000)

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

// Validate checks value ranges and enumerations, reporting every problem
// found.
func (c *Config) Validate() error {
	var problems []string
	add := func(msg string) { problems = append(problems, msg) }

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		add("store.driver must be sqlite or postgres")
	}
	if c.Cache.Enabled && c.Store.DatabaseURL == "" {
		add("store.database_url is required when the cache is enabled")
	}
	if c.Cache.MaxMemory < 1 {
		add("cache.max_memory must be > 0")
	}
	if c.Cache.TTLHours < 0 {
		add("cache.ttl_hours must be >= 0")
	}
	if c.Cache.FlushBatchSize < 1 {
		add("cache.flush_batch_size must be > 0")
	}

	switch c.Parser.DefaultNameOrder {
	case "last_first", "first_last":
	default:
		add("parser.default_name_order must be last_first or first_last")
	}
	switch c.Parser.JointNamePolicy {
	case "first_listed", "prefer_male":
	default:
		add("parser.joint_name_policy must be first_listed or prefer_male")
	}

	if !inUnit(c.Tracker.LowConfidence) {
		add("tracker.low_confidence must be between 0 and 1")
	}
	if !inUnit(c.Tracker.VeryLowConfidence) {
		add("tracker.very_low_confidence must be between 0 and 1")
	}
	if c.Tracker.VeryLowConfidence > c.Tracker.LowConfidence {
		add("tracker.very_low_confidence must not exceed tracker.low_confidence")
	}

	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
		add("batch.max_concurrent must be between 1 and 64")
	}
	if c.Primary.Enabled && c.Primary.RequestsPerSecond <= 0 {
		add("primary.requests_per_second must be > 0")
	}
	if c.Retry.MaxAttempts < 1 {
		add("retry.max_attempts must be > 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
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
