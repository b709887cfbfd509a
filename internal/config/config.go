package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/threshold-labs/sentry/internal/backtest"
	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/scenario"
)

type Config struct {
	Monitor   MonitorConfig         `mapstructure:"monitor"`
	Provider  ProviderConfig        `mapstructure:"provider"`
	Store     StoreConfig           `mapstructure:"store"`
	Scenarios []scenario.Definition `mapstructure:"scenarios"`
	Backtest  BacktestConfig        `mapstructure:"backtest"`
	Sinks     SinksConfig           `mapstructure:"sinks"`
	Archive   ArchiveConfig         `mapstructure:"archive"`
	Metrics   MetricsConfig         `mapstructure:"metrics"`
	Logging   LoggingConfig         `mapstructure:"logging"`
}

// MonitorConfig tunes the monitoring engine's scheduling and fan-out.
type MonitorConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	Cron          string        `mapstructure:"cron"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
}

// ProviderConfig selects and tunes the signal value provider.
type ProviderConfig struct {
	// RatePerSecond throttles provider reads; 0 disables throttling.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	// Static maps signal IDs to fixed values for the built-in provider.
	Static map[string]float64 `mapstructure:"static"`
}

type StoreConfig struct {
	Type  string      `mapstructure:"type"` // "memory" or "redis"
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// BacktestConfig overrides the compiled-in risk engine tuning. Zero
// values fall back to the defaults.
type BacktestConfig struct {
	Scoring      backtest.Scoring       `mapstructure:"scoring"`
	Cutoffs      backtest.StressCutoffs `mapstructure:"cutoffs"`
	Rules        []backtest.Rule        `mapstructure:"rules"`
	LevelWeights map[string]float64     `mapstructure:"level_weights"`
}

type SinksConfig struct {
	Log     LogSinkConfig     `mapstructure:"log"`
	Webhook WebhookSinkConfig `mapstructure:"webhook"`
	Email   EmailSinkConfig   `mapstructure:"email"`
	Kafka   KafkaSinkConfig   `mapstructure:"kafka"`
}

type LogSinkConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type WebhookSinkConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type EmailSinkConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

type KafkaSinkConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	RequiredAcks int           `mapstructure:"required_acks"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Async        bool          `mapstructure:"async"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("SENTRY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Interval:      5 * time.Minute,
			MaxConcurrent: 8,
			FetchTimeout:  10 * time.Second,
		},
		Store: StoreConfig{
			Type: "memory",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "sentry",
			},
		},
		Scenarios: scenario.DefaultDefinitions(),
		Sinks: SinksConfig{
			Log: LogSinkConfig{Enabled: true},
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/archive",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Monitor.Interval < 0 {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("monitor interval cannot be negative, got %s", c.Monitor.Interval))
	}
	if c.Monitor.MaxConcurrent < 0 {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("max_concurrent cannot be negative, got %d", c.Monitor.MaxConcurrent))
	}

	if c.Provider.RatePerSecond < 0 {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("rate_per_second cannot be negative, got %f", c.Provider.RatePerSecond))
	}

	switch c.Store.Type {
	case "memory", "redis":
	default:
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("unknown store type %q", c.Store.Type))
	}
	if c.Store.Type == "redis" && c.Store.Redis.Addr == "" {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("redis store requires addr"))
	}

	if c.Sinks.Webhook.Enabled && c.Sinks.Webhook.URL == "" {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("webhook sink requires url"))
	}
	if c.Sinks.Email.Enabled {
		if c.Sinks.Email.Host == "" || c.Sinks.Email.From == "" || len(c.Sinks.Email.To) == 0 {
			return core.WrapError(core.ErrConfiguration,
				fmt.Errorf("email sink requires host, from and to"))
		}
	}
	if c.Sinks.Kafka.Enabled {
		if len(c.Sinks.Kafka.Brokers) == 0 || c.Sinks.Kafka.Topic == "" {
			return core.WrapError(core.ErrConfiguration,
				fmt.Errorf("kafka sink requires brokers and topic"))
		}
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfiguration,
					fmt.Errorf("localfs archive requires path"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfiguration,
					fmt.Errorf("s3 archive requires bucket"))
			}
		default:
			return core.WrapError(core.ErrConfiguration,
				fmt.Errorf("unknown archive type %q", c.Archive.Type))
		}
	}

	if _, err := c.ScenarioCatalog(); err != nil {
		return err
	}
	if _, err := c.BacktestConfig(); err != nil {
		return err
	}

	return nil
}

// ScenarioCatalog builds the scenario catalog from the configured
// definitions.
func (c *Config) ScenarioCatalog() (*scenario.Catalog, error) {
	return scenario.NewCatalog(c.Scenarios)
}

// BacktestConfig resolves the configured risk engine tuning, filling
// unset sections with the compiled-in defaults.
func (c *Config) BacktestConfig() (backtest.Config, error) {
	out := backtest.DefaultConfig()

	if c.Backtest.Scoring != (backtest.Scoring{}) {
		out.Scoring = c.Backtest.Scoring
	}
	if c.Backtest.Cutoffs != (backtest.StressCutoffs{}) {
		out.Cutoffs = c.Backtest.Cutoffs
	}
	if len(c.Backtest.Rules) > 0 {
		out.Rules = c.Backtest.Rules
	}

	if len(c.Backtest.LevelWeights) > 0 {
		weights := make(map[core.Level]float64, len(c.Backtest.LevelWeights))
		for name, w := range c.Backtest.LevelWeights {
			level, err := core.ParseLevel(name)
			if err != nil {
				return backtest.Config{}, core.WrapError(core.ErrConfiguration, err)
			}
			if w < 0 {
				return backtest.Config{}, core.WrapError(core.ErrConfiguration,
					fmt.Errorf("level weight for %s cannot be negative", name))
			}
			weights[level] = w
		}
		out.LevelWeights = weights
	}

	if err := out.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return out, nil
}
