package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/threshold-labs/sentry/internal/archive"
	"github.com/threshold-labs/sentry/internal/config"
	"github.com/threshold-labs/sentry/internal/provider"
	"github.com/threshold-labs/sentry/internal/sink"
	"github.com/threshold-labs/sentry/internal/sink/email"
	"github.com/threshold-labs/sentry/internal/sink/kafka"
	"github.com/threshold-labs/sentry/internal/sink/webhook"
	"github.com/threshold-labs/sentry/internal/store"
)

// loadConfig resolves the config file flag, falling back to defaults,
// and validates the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case "redis":
		return store.NewRedis(store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		})
	default:
		return store.NewMemory(), nil
	}
}

func buildProvider(cfg *config.Config) provider.ValueProvider {
	var vp provider.ValueProvider = provider.NewStatic(cfg.Provider.Static)
	if cfg.Provider.RatePerSecond > 0 {
		burst := cfg.Provider.Burst
		if burst < 1 {
			burst = 1
		}
		vp = provider.NewRateLimited(vp, cfg.Provider.RatePerSecond, burst)
	}
	return vp
}

func buildSinks(cfg *config.Config, log *zap.Logger) (*sink.Registry, error) {
	reg := sink.NewRegistry()

	if cfg.Sinks.Log.Enabled {
		if err := reg.Register(sink.NewLog(log)); err != nil {
			return nil, err
		}
	}
	if cfg.Sinks.Webhook.Enabled {
		wh, err := webhook.New(cfg.Sinks.Webhook.URL, cfg.Sinks.Webhook.Headers)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(wh); err != nil {
			return nil, err
		}
	}
	if cfg.Sinks.Email.Enabled {
		em, err := email.New(
			cfg.Sinks.Email.Host, cfg.Sinks.Email.Port,
			cfg.Sinks.Email.Username, cfg.Sinks.Email.Password,
			cfg.Sinks.Email.From, cfg.Sinks.Email.To,
		)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(em); err != nil {
			return nil, err
		}
	}
	if cfg.Sinks.Kafka.Enabled {
		kf, err := kafka.New(kafka.Config{
			Brokers:      cfg.Sinks.Kafka.Brokers,
			Topic:        cfg.Sinks.Kafka.Topic,
			RequiredAcks: cfg.Sinks.Kafka.RequiredAcks,
			MaxAttempts:  cfg.Sinks.Kafka.MaxAttempts,
			WriteTimeout: cfg.Sinks.Kafka.WriteTimeout,
			Async:        cfg.Sinks.Kafka.Async,
		})
		if err != nil {
			return nil, err
		}
		if err := reg.Register(kf); err != nil {
			return nil, err
		}
	}
	if cfg.Archive.Enabled {
		st, err := buildArchiveStorage(cfg)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(archive.NewArchiver(st)); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func buildArchiveStorage(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Archive.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Archive.Path)
	}
}
