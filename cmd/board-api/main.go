package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/FlightBoard/config"
	boardapi "github.com/BearBump/FlightBoard/internal/api/board_api"
	"github.com/BearBump/FlightBoard/internal/broker/kafka"
	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream/fake"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream/httpclient"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/observability"
	"github.com/BearBump/FlightBoard/internal/services/board"
	"github.com/BearBump/FlightBoard/internal/services/history"
	"github.com/BearBump/FlightBoard/internal/status"
	"github.com/BearBump/FlightBoard/internal/storage/pgboard"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := newLogger(cfg.Logging)

	httpAddr := cfg.FlightBoard.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.FlightBoard.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "board-api"
	}
	topic := cfg.Kafka.BoardUpdatedTopicName
	if topic == "" {
		topic = messages.TypeBoardUpdated
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, nil, log)
	if err != nil {
		panic(err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	classifier, err := status.New(cfg.Classifier.States)
	if err != nil {
		panic(fmt.Sprintf("invalid classifier config: %v", err))
	}

	svc := board.New(newUpstreamClient(cfg.Upstream, collector, log), classifier, board.Options{
		PageSize:       cfg.Upstream.PageSize,
		FullResolution: cfg.FlightBoard.BoardFullResolution,
		Metrics:        collector,
		Logger:         log.With("component", "board"),
	})

	deps := boardAPIDeps{
		metrics: collector.Handler(),
		log:     log,
	}

	var hist boardapi.HistoryService
	if cfg.Database.Host != "" {
		st := mustOpenPostgresWithRetry(cfg.Database.PostgresDSN(), 60*time.Second)
		defer st.Close()

		hs := history.New(st)
		hist = hs
		deps.history = hs

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers(), topic, consumerGroup, log.With("component", "consumer"))
		defer func() { _ = consumer.Close() }()
		deps.consumer = consumer
	} else {
		log.Warn("database not configured; history endpoints disabled")
	}
	deps.api = boardapi.New(svc, hist, collector, log.With("component", "api"))

	if err := runBoardAPI(ctx, boardAPIOpts{
		httpAddr:      httpAddr,
		swaggerPath:   os.Getenv("swaggerPath"),
		topic:         topic,
		consumerGroup: consumerGroup,
	}, deps); err != nil && err != context.Canceled {
		panic(err)
	}
}

func newLogger(cfg config.LoggingConfig) logger.Logger {
	console := true
	if cfg.Console != nil {
		console = *cfg.Console
	}
	return logger.New(logger.Config{
		Level:    cfg.Level,
		Console:  console,
		FilePath: cfg.FilePath,
	})
}

// newUpstreamClient falls back to the in-memory fake when no base URL is configured.
func newUpstreamClient(cfg config.UpstreamConfig, obs httpclient.Observer, log logger.Logger) upstream.Client {
	if cfg.BaseURL == "" {
		log.Warn("upstream base_url is empty; using fake airports")
		return fake.New()
	}
	return httpclient.New(cfg.BaseURL, httpclient.Options{
		LocationsPath: cfg.LocationsPath,
		MovementsPath: cfg.MovementsPath,
		MovementsKey:  cfg.MovementsKey,
		Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
		Observer:      obs,
	})
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgboard.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgboard.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}
