package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/ws"
	"MarketPulse/internal/service/history"
	"MarketPulse/internal/usecase"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	hub        *ws.Hub
	store      *history.Store
	backfiller *usecase.Backfiller
	retention  *usecase.Retention
	consumer   *pkgkafka.Consumer
	signals    pkgkafka.MessageHandler
	chClient   *pkgch.Client
	producer   *pkgkafka.Producer
	archive    domrepo.Archive

	httpServer *xhttp.Server
	scheduler  *cron.Cron
}

// New creates a new App instance with all dependencies. Kafka, ClickHouse and
// hub arguments may be nil when the respective backend is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	store *history.Store,
	backfiller *usecase.Backfiller,
	retention *usecase.Retention,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		handler:    handler,
		hub:        hub,
		store:      store,
		backfiller: backfiller,
		retention:  retention,
	}
}

// SetKafka attaches the consumer and its signals handler.
func (a *App) SetKafka(consumer *pkgkafka.Consumer, signals pkgkafka.MessageHandler, producer *pkgkafka.Producer) {
	a.consumer = consumer
	a.signals = signals
	a.producer = producer
}

// SetClickHouse attaches the archive client for shutdown and health checks.
func (a *App) SetClickHouse(client *pkgch.Client, archive domrepo.Archive) {
	a.chClient = client
	a.archive = archive
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if a.hub != nil {
		a.hub.RegisterRoutes(a.httpServer.Echo())
	}
	a.httpServer.Echo().GET("/healthz", a.health)

	// Repopulate the cold store from the archive before traffic arrives.
	if a.archive != nil {
		warmCtx, warmCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := a.backfiller.WarmFromArchive(warmCtx); err != nil {
			a.l.Warn("archive warm failed, starting cold", applogger.Error(err))
		}
		warmCancel()
	}

	// Retention pruning on schedule.
	if a.retention != nil {
		a.scheduler = cron.New()
		if _, err := a.scheduler.AddFunc(a.cfg.History.PruneSchedule, func() {
			a.retention.Prune()
		}); err != nil {
			a.l.Error("prune schedule invalid", applogger.String("schedule", a.cfg.History.PruneSchedule), applogger.Error(err))
			return err
		}
		a.scheduler.Start()
		a.l.Info("retention scheduler started", applogger.String("schedule", a.cfg.History.PruneSchedule))
	}

	if a.consumer != nil && a.signals != nil {
		a.consumer.RegisterHandler(a.signals)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.signals.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}

// health reports liveness plus the state of attached backends.
func (a *App) health(c echo.Context) error {
	out := map[string]interface{}{
		"status": "ok",
		"days":   a.store.Len(),
	}
	if a.hub != nil {
		out["streamClients"] = a.hub.ClientCount()
	}
	if a.archive != nil {
		hctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := a.archive.Health(hctx); err != nil {
			out["status"] = "degraded"
			out["archive"] = err.Error()
		} else {
			out["archive"] = "ok"
		}
	}
	code := http.StatusOK
	if out["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, out)
}
