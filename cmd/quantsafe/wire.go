package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/quantsafe/internal/analysis"
	"github.com/newthinker/quantsafe/internal/app"
	"github.com/newthinker/quantsafe/internal/config"
	"github.com/newthinker/quantsafe/internal/llm/factory"
	"github.com/newthinker/quantsafe/internal/lock"
	"github.com/newthinker/quantsafe/internal/logger"
	"github.com/newthinker/quantsafe/internal/market"
	"github.com/newthinker/quantsafe/internal/metrics"
	"github.com/newthinker/quantsafe/internal/notifier"
	"github.com/newthinker/quantsafe/internal/notifier/kafka"
	"github.com/newthinker/quantsafe/internal/notifier/webhook"
	"github.com/newthinker/quantsafe/internal/storage/history"
	"go.uber.org/zap"
)

const webhookTimeout = 10 * time.Second

// runtime is the assembled application plus what must be closed on exit.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	app     *app.App
	metrics *metrics.Registry
	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadConfig reads and validates configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	development := debug || cfg.Server.Mode == "debug"
	level := cfg.Log.Level
	if development {
		level = "debug"
	}
	return cfg, logger.Must(development, level), nil
}

// build wires every component from configuration.
func build(cfg *config.Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	analysisOpts := []analysis.Option{
		analysis.WithLogger(log.Named("analysis")),
		analysis.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	}
	deps := app.Dependencies{
		Feed: market.NewFeed(market.Config{
			Ticker:       cfg.Market.Ticker,
			InitialPrice: cfg.Market.InitialPrice,
			Change24h:    cfg.Market.Change24h,
			Volume:       cfg.Market.Volume,
			MaxMove:      cfg.Market.MaxMove,
		}, nil),
		History:   history.NewMemoryStore(cfg.History.Size),
		Notifiers: notifier.NewRegistry(),
		Logger:    log.Named("app"),
	}

	if cfg.Metrics.Enabled {
		rt.metrics = metrics.NewRegistry()
		analysisOpts = append(analysisOpts, analysis.WithRecorder(rt.metrics))
		deps.Metrics = rt.metrics
	}
	client := analysis.New(provider, analysisOpts...)
	deps.Analyzer = client

	switch cfg.Lock.Type {
	case "redis":
		guard, err := lock.Dial(lock.RedisConfig{
			Addr:     cfg.Lock.Redis.Addr,
			Password: cfg.Lock.Redis.Password,
			DB:       cfg.Lock.Redis.DB,
			Key:      cfg.Lock.Redis.Key,
			TTL:      cfg.Lock.Redis.TTL,
		}, log.Named("lock"))
		if err != nil {
			return nil, fmt.Errorf("creating redis guard: %w", err)
		}
		deps.Guard = guard
		rt.closers = append(rt.closers, guard.Close)
	default:
		deps.Guard = lock.NewLocal()
	}

	if err := registerNotifiers(deps.Notifiers, cfg.Notifiers); err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, deps.Notifiers.Close)

	rt.app = app.New(deps)

	log.Info("components ready",
		zap.String("provider", client.Provider()),
		zap.String("ticker", cfg.Market.Ticker),
		zap.String("lock", cfg.Lock.Type),
		zap.Int("notifiers", deps.Notifiers.Len()),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)
	return rt, nil
}

func registerNotifiers(reg *notifier.Registry, cfg config.NotifiersConfig) error {
	if cfg.Webhook.Enabled {
		wh, err := webhook.New(cfg.Webhook.URL, cfg.Webhook.Headers, webhookTimeout)
		if err != nil {
			return fmt.Errorf("creating webhook notifier: %w", err)
		}
		if err := reg.Register(wh); err != nil {
			return err
		}
	}

	if cfg.Kafka.Enabled {
		k, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("creating kafka notifier: %w", err)
		}
		if err := reg.Register(k); err != nil {
			return err
		}
	}
	return nil
}
