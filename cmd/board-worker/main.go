package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/FlightBoard/config"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/observability"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	console := true
	if cfg.Logging.Console != nil {
		console = *cfg.Logging.Console
	}
	log := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		Console:  console,
		FilePath: cfg.Logging.FilePath,
	})

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

	if err := RunBoardWorker(ctx, cfg, defaultWorkerFactories(), workerRunOpts{
		swaggerPath: os.Getenv("swaggerPath"),
		collector:   collector,
		log:         log,
	}); err != nil && err != context.Canceled {
		panic(err)
	}
}
