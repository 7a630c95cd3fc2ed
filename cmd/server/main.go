package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cache "github.com/krisalay/paginated-query-cache"
	"github.com/krisalay/paginated-query-cache/config"
	"github.com/krisalay/paginated-query-cache/engine"
	"github.com/krisalay/paginated-query-cache/expiration"
	"github.com/krisalay/paginated-query-cache/httpapi"
	"github.com/krisalay/paginated-query-cache/internal/logging"
	"github.com/krisalay/paginated-query-cache/metrics"
	"github.com/krisalay/paginated-query-cache/recordapi"
	"github.com/krisalay/paginated-query-cache/writepolicy"
)

func main() {
	path := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	conf, err := config.Load(*path)
	if err != nil {
		logging.NewLogger(false, zapcore.InfoLevel).Fatal("load config", zap.Error(err))
	}

	log := logging.NewLogger(conf.LogJSON, conf.Level())
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	records := recordapi.NewClient(conf.API.BaseURL, conf.API.Timeout)

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: conf.TTL},
		records,
		metrics.NewPrometheus(reg, "clinic"),
		log.Named("cache"),
	)

	opts := []cache.Option{cache.WithSweepInterval(conf.EffectiveSweepInterval())}
	if conf.Deduplicate {
		opts = append(opts, cache.WithDeduplication())
	}
	pages := cache.NewPageCache(conf.CacheLimit, eng, opts...)

	// every accepted write to a patient clears the listing cache
	records.SetWritePolicy(writepolicy.NewInvalidateThrough(pages))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pages.Start(ctx)
	defer pages.Close()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           httpapi.NewHandler(pages, records, reg, log.Named("http")).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening",
			zap.String("addr", conf.Listen),
			zap.String("record_api", conf.API.BaseURL),
			zap.Duration("ttl", conf.TTL),
			zap.Int("cache_limit", conf.CacheLimit),
			zap.Duration("sweep_interval", conf.EffectiveSweepInterval()),
			zap.Bool("deduplicate", conf.Deduplicate),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
