package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BearBump/FlightBoard/config"
	"github.com/BearBump/FlightBoard/internal/broker/kafka"
	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/cache"
	"github.com/BearBump/FlightBoard/internal/cache/rediscache"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream/fake"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream/httpclient"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/observability"
	"github.com/BearBump/FlightBoard/internal/services/board"
	"github.com/BearBump/FlightBoard/internal/services/refresher"
	"github.com/BearBump/FlightBoard/internal/status"
	"golang.org/x/sync/errgroup"
)

type workerFactories struct {
	newProducer       func(cfg *config.Config) (producer refresher.Producer, closeFn func())
	newRateLimiter    func(cfg *config.Config) refresher.RateLimiter
	newDigestCache    func(cfg *config.Config) cache.BytesCache
	newUpstreamClient func(cfg *config.Config, obs httpclient.Observer) upstream.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newProducer: func(cfg *config.Config) (refresher.Producer, func()) {
			p := kafka.NewProducer(cfg.Kafka.Brokers())
			return p, func() { _ = p.Close() }
		},
		newRateLimiter: func(cfg *config.Config) refresher.RateLimiter {
			return rediscache.NewRateLimiter(cfg.Redis.Addr(), "ratelimit:upstream")
		},
		newDigestCache: func(cfg *config.Config) cache.BytesCache {
			return rediscache.New(cfg.Redis.Addr())
		},
		newUpstreamClient: func(cfg *config.Config, obs httpclient.Observer) upstream.Client {
			// Without a base URL the worker refreshes the in-memory fake schedule.
			if cfg.Upstream.BaseURL == "" {
				return fake.New()
			}
			return httpclient.New(cfg.Upstream.BaseURL, httpclient.Options{
				LocationsPath: cfg.Upstream.LocationsPath,
				MovementsPath: cfg.Upstream.MovementsPath,
				MovementsKey:  cfg.Upstream.MovementsKey,
				Timeout:       time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
				Observer:      obs,
			})
		},
	}
}

type workerRunOpts struct {
	// swaggerPath enables the ops HTTP server; empty runs the refresher alone
	swaggerPath string
	onListen    func(httpAddr string)

	collector *observability.Collector
	log       logger.Logger
}

func RunBoardWorker(ctx context.Context, cfg *config.Config, f workerFactories, opts workerRunOpts) error {
	log := opts.log
	if log == nil {
		log = logger.Nop()
	}

	topic := cfg.Kafka.BoardUpdatedTopicName
	if topic == "" {
		topic = messages.TypeBoardUpdated
	}
	pollInterval := time.Duration(cfg.FlightBoard.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	concurrency := cfg.FlightBoard.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	rlPerMin := int64(cfg.FlightBoard.WorkerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 60
	}
	digestTTL := time.Duration(cfg.FlightBoard.WorkerDigestTTLSeconds) * time.Second
	if digestTTL <= 0 {
		digestTTL = 24 * time.Hour
	}
	movementPages := cfg.FlightBoard.WorkerWatchMovementPages
	if movementPages < 0 {
		movementPages = 0
	}
	httpAddr := cfg.FlightBoard.WorkerHTTPAddr
	if httpAddr == "" {
		httpAddr = ":8082"
	}

	classifier, err := status.New(cfg.Classifier.States)
	if err != nil {
		return err
	}

	producer, closeProducer := f.newProducer(cfg)
	if closeProducer != nil {
		defer closeProducer()
	}

	svc := board.New(f.newUpstreamClient(cfg, opts.collector), classifier, board.Options{
		PageSize:       cfg.Upstream.PageSize,
		FullResolution: cfg.FlightBoard.BoardFullResolution,
		Metrics:        opts.collector,
		Logger:         log.With("component", "board"),
	})

	ids := make([]models.ID, 0, len(cfg.FlightBoard.WorkerWatchLocationIDs))
	for _, id := range cfg.FlightBoard.WorkerWatchLocationIDs {
		ids = append(ids, models.ID(id))
	}

	r := refresher.New(svc, producer, f.newRateLimiter(cfg), f.newDigestCache(cfg), topic, log.With("component", "refresher")).
		WithSettings(pollInterval, concurrency, rlPerMin, digestTTL).
		WithPlanner(plannerConfig(cfg.FlightBoard)).
		WithMetrics(opts.collector).
		Watch(ids, movementPages)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Run(gctx)
	})
	if opts.swaggerPath != "" {
		var metrics http.Handler
		if opts.collector != nil {
			metrics = opts.collector.Handler()
		}
		g.Go(func() error {
			err := runWorkerHTTPServer(gctx, workerHTTPOpts{
				httpAddr:    httpAddr,
				swaggerPath: opts.swaggerPath,
				onListen:    opts.onListen,
				refresher:   r,
				cfg:         cfg,
				metrics:     metrics,
			})
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func plannerConfig(c config.FlightBoardConfig) refresher.PlannerConfig {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return refresher.PlannerConfig{
		ActiveDelay: sec(c.WorkerActiveRefreshSeconds),
		QuietDelay:  sec(c.WorkerQuietRefreshSeconds),
		Backoff1:    sec(c.WorkerBackoff1Seconds),
		Backoff2:    sec(c.WorkerBackoff2Seconds),
		Backoff3:    sec(c.WorkerBackoff3Seconds),
		Backoff4:    sec(c.WorkerBackoff4Seconds),
	}
}
