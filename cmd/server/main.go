// Package main is the entry point for the inventory core server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"inventorycore/internal/config"
	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/breaker"
	"inventorycore/internal/infrastructure/bulkhead"
	"inventorycore/internal/infrastructure/eventlog"
	"inventorycore/internal/infrastructure/fsio"
	v1 "inventorycore/internal/infrastructure/http/v1"
	"inventorycore/internal/infrastructure/idempotency"
	"inventorycore/internal/infrastructure/keylock"
	"inventorycore/internal/infrastructure/loadshed"
	"inventorycore/internal/infrastructure/ratelimit"
	"inventorycore/internal/infrastructure/stockstore"
	"inventorycore/internal/infrastructure/syncworker"
	"inventorycore/internal/metrics"
	"inventorycore/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting inventory core server")

	sink := metrics.New()
	retryPolicy := fsio.RetryPolicy{
		Times:     cfg.RetryTimes,
		BaseDelay: cfg.RetryBaseDelay,
		JitterMax: cfg.RetryJitterMax,
		OnRetry:   sink.IncFSRetries,
	}

	fsBulkhead := bulkhead.New("filesystem", cfg.ConcurrencyFS, 200)
	syncBulkhead := bulkhead.New("sync", cfg.ConcurrencySync, 50)
	apiBulkhead := bulkhead.New("api", cfg.ConcurrencyAPI, 100)

	fsBreaker := breaker.New("filesystem", cfg.BreakerThreshold, cfg.BreakerWindow, cfg.BreakerCooldown)
	guardedFS := fsBreakerBulkhead{bulkhead: fsBulkhead, breaker: fsBreaker, metrics: sink}

	events, err := eventlog.New(ctx, filepath.Join(cfg.DataDir, "event-log.json"), retryPolicy, guardedFS)
	if err != nil {
		log.Fatalw("failed to load event log", "error", err)
	}

	stock, err := stockstore.New(ctx, filepath.Join(cfg.DataDir, "store-inventory.json"), retryPolicy, guardedFS)
	if err != nil {
		log.Fatalw("failed to load stock store", "error", err)
	}

	if err := inventory.Recover(ctx, events, stock); err != nil {
		log.Fatalw("outbox recovery failed", "error", err)
	}
	log.Info("outbox recovery complete")

	idempotencyCache := idempotency.New(cfg.IdempotencySweep)
	defer idempotencyCache.Close()

	locks := keylock.New()

	service := &inventory.Service{
		Events:         events,
		Stock:          stock,
		Idempotency:    idempotencyCache,
		Locks:          locks,
		Metrics:        sink,
		HashPayload:    idempotency.HashPayload,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}

	rateLimiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.RateLimitIdleTTL, time.Minute)
	defer rateLimiter.Close()

	shedder := loadshed.New(cfg.LoadShedQueueMax, apiBulkhead, syncBulkhead)

	syncCtx, cancelSync := context.WithCancel(ctx)
	defer cancelSync()
	worker := &syncworker.Worker{
		Events:   events,
		Path:     filepath.Join(cfg.DataDir, "central-inventory.json"),
		Interval: cfg.SyncInterval,
		Sync:     syncBulkhead,
		FS:       guardedFS,
		Policy:   retryPolicy,
	}
	go worker.Run(syncCtx)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		Service:     service,
		Stock:       stock,
		RateLimiter: rateLimiter,
		LoadShedder: shedder,
		APIBulkhead: apiBulkhead,
		Breakers:    []*breaker.Breaker{fsBreaker},
		Metrics:     sink,
	})

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancelSync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// fsBreakerBulkhead composes the filesystem bulkhead and circuit breaker
// into the single FSBulkhead interface eventlog/stockstore/syncworker
// expect: admission goes through the bulkhead first, then the breaker
// fast-fails if the filesystem has been failing persistently.
type fsBreakerBulkhead struct {
	bulkhead *bulkhead.Bulkhead
	breaker  *breaker.Breaker
	metrics  *metrics.Sink
}

func (f fsBreakerBulkhead) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return f.bulkhead.Run(ctx, func(ctx context.Context) error {
		before := f.breaker.Snapshot()
		err := f.breaker.Run(ctx, fn)
		if f.metrics != nil && before != breaker.Open && f.breaker.Snapshot() == breaker.Open {
			f.metrics.IncBreakerOpenings()
		}
		return err
	})
}
