package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PriceRadar/internal/broadcast"
	"PriceRadar/pkg/cache"
	pkgch "PriceRadar/pkg/clickhouse"
	"PriceRadar/pkg/config"
	xhttp "PriceRadar/pkg/http"
	pkgkafka "PriceRadar/pkg/kafka"
	applogger "PriceRadar/pkg/logger"
)

// App encapsulates the application lifecycle: the broadcast heartbeat, the
// optional Kafka ingest consumer, the HTTP server, and infrastructure
// client teardown.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	bus         *broadcast.Bus
	consumer    *pkgkafka.Consumer
	ingest      pkgkafka.MessageHandler
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	chClient    *pkgch.Client
	cacheSvc    cache.Service
}

// New creates an App with all dependencies. The consumer, ClickHouse client
// and cache may be nil when the deployment does not use them.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	bus *broadcast.Bus,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
	httpHandler xhttp.Handler,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		bus:         bus,
		consumer:    consumer,
		ingest:      ingest,
		httpHandler: httpHandler,
		chClient:    chClient,
		cacheSvc:    cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.bus.Run(ctx)
	a.log.Info("broadcast heartbeat started",
		applogger.Duration("interval", a.cfg.Broadcast.HeartbeatInterval))

	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka ingest started", applogger.String("topic", a.ingest.Topic()))
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops services in reverse start order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
