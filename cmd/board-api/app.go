package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	boardapi "github.com/BearBump/FlightBoard/internal/api/board_api"
	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/BearBump/FlightBoard/internal/services/history"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type boardAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string
	// first delay between attempts to apply an update; doubles up to maxApplyBackoff
	applyBackoff time.Duration

	onListen func(httpAddr string)
}

type boardConsumer interface {
	ConsumeBoardUpdated(ctx context.Context, handler func(ctx context.Context, msg messages.BoardUpdated) error) error
}

type historyApplier interface {
	ApplyKafkaUpdate(ctx context.Context, msg messages.BoardUpdated) (int, error)
}

type boardAPIDeps struct {
	api     *boardapi.BoardAPI
	metrics http.Handler

	// history and consumer are nil when no database is configured
	history  historyApplier
	consumer boardConsumer

	log logger.Logger
}

func runBoardAPI(ctx context.Context, opts boardAPIOpts, deps boardAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}
	if deps.log == nil {
		deps.log = logger.Nop()
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, opts.swaggerPath, deps)
	}()

	var consumerErr chan error
	if deps.consumer != nil && deps.history != nil {
		consumerErr = make(chan error, 1)
		go func() {
			err := consumeHistory(ctx, opts, deps)
			if ctx.Err() != nil {
				return
			}
			deps.log.Error("kafka consumer stopped", "error", err)
			consumerErr <- errors.Wrap(err, "history consumer")
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	case err := <-consumerErr:
		return err
	}
}

const (
	defaultApplyBackoff = 500 * time.Millisecond
	maxApplyBackoff     = 30 * time.Second
)

// consumeHistory applies board.updated events to the history store. A failed apply is retried
// until it succeeds, so the message is committed only once it is recorded. Invalid updates are
// skipped.
func consumeHistory(ctx context.Context, opts boardAPIOpts, deps boardAPIDeps) error {
	deps.log.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
	backoff := opts.applyBackoff
	if backoff <= 0 {
		backoff = defaultApplyBackoff
	}
	err := deps.consumer.ConsumeBoardUpdated(ctx, func(ctx context.Context, msg messages.BoardUpdated) error {
		delay := backoff
		for attempt := 1; ; attempt++ {
			n, err := deps.history.ApplyKafkaUpdate(ctx, msg)
			if err == nil {
				if n > 0 {
					deps.log.Debug("state transitions recorded", "key", msg.Key, "count", n)
				}
				return nil
			}
			if errors.Is(err, history.ErrInvalidUpdate) {
				deps.log.Warn("skip invalid board update", "key", msg.Key, "error", err)
				return nil
			}
			deps.log.Warn("apply board update failed", "key", msg.Key, "attempt", attempt, "retry_in", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxApplyBackoff)
		}
	})
	if err == nil {
		err = errors.New("consumer returned without error")
	}
	return err
}

func newRouter(swaggerPath string, deps boardAPIDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))
	if deps.metrics != nil {
		r.Handle("/metrics", deps.metrics)
	}
	if deps.api != nil {
		deps.api.Routes(r)
	}
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, swaggerPath string, deps boardAPIDeps) error {
	srv := &http.Server{
		Handler:           newRouter(swaggerPath, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	deps.log.Info("HTTP server listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}
