package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/cache"
	"github.com/tidyframe/tidyframe/internal/parser"
	"github.com/tidyframe/tidyframe/internal/pipeline"
	"github.com/tidyframe/tidyframe/internal/resilience"
	"github.com/tidyframe/tidyframe/internal/scorer"
	"github.com/tidyframe/tidyframe/internal/store"
	"github.com/tidyframe/tidyframe/internal/tracker"
)

// appEnv holds the components shared by the commands.
type appEnv struct {
	Store    store.Store
	Cache    *cache.Manager
	Parser   *parser.Parser
	Tracker  *tracker.Tracker
	Pipeline *pipeline.Pipeline

	stopFlusher context.CancelFunc
	flusherDone chan struct{}
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

func initParser() (*parser.Parser, error) {
	var extra []scorer.Tables
	if cfg.Parser.NameTablesPath != "" {
		t, err := scorer.LoadTables(cfg.Parser.NameTablesPath)
		if err != nil {
			return nil, err
		}
		extra = append(extra, t)
	}
	return parser.New(parser.Options{
		Scorer:      scorer.NewStatic(extra...),
		NameOrder:   parser.NameOrder(cfg.Parser.DefaultNameOrder),
		JointPolicy: parser.JointPolicy(cfg.Parser.JointNamePolicy),
	}), nil
}

func initTracker() *tracker.Tracker {
	return tracker.New(tracker.Thresholds{
		LowConfidence:     cfg.Tracker.LowConfidence,
		VeryLowConfidence: cfg.Tracker.VeryLowConfidence,
	})
}

func cacheConfig() cache.Config {
	retry := resilience.BackoffFromSettings(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
	retry.OnRetry = resilience.LogRetry("cache flush")
	return cache.Config{
		MaxMemory:      cfg.Cache.MaxMemory,
		TTL:            time.Duration(cfg.Cache.TTLHours) * time.Hour,
		FlushBatchSize: cfg.Cache.FlushBatchSize,
		FlushInterval:  time.Duration(cfg.Cache.FlushIntervalSecs) * time.Second,
		Retry:          retry,
	}
}

func primaryConfig() pipeline.PrimaryConfig {
	return pipeline.PrimaryConfig{
		Timeout:           time.Duration(cfg.Primary.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Primary.RequestsPerSecond,
		Breaker:           resilience.BreakerFromSettings(cfg.Primary.FailureThreshold, cfg.Primary.ResetTimeoutSecs),
	}
}

// initCache opens the store and wraps it in a cache manager.
func initCache(ctx context.Context) (store.Store, *cache.Manager, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "init store")
	}
	c, err := cache.New(cacheConfig(), st)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	return st, c, nil
}

// initEnv builds the parse pipeline. useCache is ignored when the cache is
// disabled in configuration.
func initEnv(ctx context.Context, useCache bool) (*appEnv, error) {
	p, err := initParser()
	if err != nil {
		return nil, eris.Wrap(err, "init parser")
	}
	env := &appEnv{Parser: p, Tracker: initTracker()}

	if useCache && cfg.Cache.Enabled {
		env.Store, env.Cache, err = initCache(ctx)
		if err != nil {
			return nil, err
		}
		flushCtx, cancel := context.WithCancel(ctx)
		env.stopFlusher = cancel
		env.flusherDone = make(chan struct{})
		go func() {
			defer close(env.flusherDone)
			env.Cache.RunFlusher(flushCtx)
		}()
	}

	if cfg.Primary.Enabled {
		zap.L().Warn("primary parser enabled but no client is configured; using fallback parser")
	}

	env.Pipeline = pipeline.New(pipeline.Options{
		Parser:        env.Parser,
		Tracker:       env.Tracker,
		Cache:         env.Cache,
		PrimaryConfig: primaryConfig(),
		MaxConcurrent: cfg.Batch.MaxConcurrent,
	})
	return env, nil
}

// Close stops the flusher, which writes pending cache entries, then closes
// the store.
func (e *appEnv) Close() {
	if e.stopFlusher != nil {
		e.stopFlusher()
		<-e.flusherDone
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}
