package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	consenthandler "beacon/internal/consent/handler"
	consentmetrics "beacon/internal/consent/metrics"
	consentmodels "beacon/internal/consent/models"
	consentservice "beacon/internal/consent/service"
	eventshandler "beacon/internal/events/handler"
	eventsmetrics "beacon/internal/events/metrics"
	eventsservice "beacon/internal/events/service"
	perfhandler "beacon/internal/performance/handler"
	perfmetrics "beacon/internal/performance/metrics"
	perfservice "beacon/internal/performance/service"
	perfstore "beacon/internal/performance/store"
	"beacon/internal/platform/config"
	"beacon/internal/platform/health"
	"beacon/internal/platform/httpserver"
	"beacon/internal/platform/logger"
	platformredis "beacon/internal/platform/redis"
	"beacon/internal/platform/tracer"
	ratelimitconfig "beacon/internal/ratelimit/config"
	ratelimitmetrics "beacon/internal/ratelimit/metrics"
	ratelimitmw "beacon/internal/ratelimit/middleware"
	ratelimitservice "beacon/internal/ratelimit/service"
	"beacon/internal/ratelimit/store/bucket"
	"beacon/internal/sink"
	"beacon/internal/storage"
	httptransport "beacon/internal/transport/http"
	id "beacon/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing beacon",
		"addr", cfg.Addr,
		"redis", cfg.RedisAddr != "",
		"analytics_sink", cfg.AnalyticsSinkURL != "",
		"error_sink", cfg.ErrorSinkURL != "",
	)

	healthHandler := health.New()

	var store storage.Store = storage.NewInMemory()
	if cfg.RedisAddr != "" {
		rdb, err := platformredis.New(cfg.RedisAddr)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		store = storage.NewRedis(rdb, "beacon")
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Health(ctx)
		})
	}

	consents, err := consentservice.New(store, log,
		consentservice.WithMetrics(consentmetrics.New()),
		consentservice.WithTTL(cfg.ConsentTTL),
	)
	if err != nil {
		log.Error("consent service init failed", "error", err)
		os.Exit(1)
	}
	consents.Subscribe(func(sessionID id.SessionID, record consentmodels.Record) {
		log.Info("consent changed",
			"session_id", sessionID.String(),
			"level", record.Level,
			"method", record.Method,
		)
	})

	limiter, err := ratelimitservice.New(bucket.NewInMemory(), log,
		ratelimitservice.WithConfig(ratelimitconfig.FromEnv()),
		ratelimitservice.WithMetrics(ratelimitmetrics.New()),
	)
	if err != nil {
		log.Error("rate limiter init failed", "error", err)
		os.Exit(1)
	}

	var analytics sink.AnalyticsSink
	if cfg.AnalyticsSinkURL != "" {
		analytics = sink.NewHTTPAnalyticsSink(cfg.AnalyticsSinkURL, cfg.SinkTimeout)
	}
	var errSink sink.ErrorSink
	if cfg.ErrorSinkURL != "" {
		errSink = sink.NewHTTPErrorSink(cfg.ErrorSinkURL, cfg.SinkTimeout)
	}
	dispatcher := sink.NewDispatcher(analytics, errSink, log,
		sink.WithTimeout(cfg.SinkTimeout),
		sink.WithAsync(),
	)

	performance, err := perfservice.New(perfstore.NewInMemory(), log,
		perfservice.WithMetrics(perfmetrics.New()),
	)
	if err != nil {
		log.Error("performance service init failed", "error", err)
		os.Exit(1)
	}

	events, err := eventsservice.New(dispatcher, log,
		eventsservice.WithConsentSource(consents),
		eventsservice.WithPerformanceRecorder(performance),
		eventsservice.WithMetrics(eventsmetrics.New()),
		eventsservice.WithTracer(tracer.NewOTel()),
	)
	if err != nil {
		log.Error("events service init failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Routes{
		Consent:     consenthandler.New(consents, log),
		Events:      eventshandler.New(events, log),
		Performance: perfhandler.New(performance, consents, log),
		Health:      healthHandler,
		RateLimit:   ratelimitmw.New(limiter, log),
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	dispatcher.Close()

	log.Info("server stopped")
}
