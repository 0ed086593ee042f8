package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/analytics"
	"github.com/cinepass/gateway/internal/config" // Internal config loader
	"github.com/cinepass/gateway/internal/database"
	"github.com/cinepass/gateway/internal/handler"
	"github.com/cinepass/gateway/internal/logger"
	"github.com/cinepass/gateway/internal/notification"
	"github.com/cinepass/gateway/internal/queue"
	"github.com/cinepass/gateway/internal/router" // Internal router setup
	"github.com/cinepass/gateway/internal/session"
	"github.com/cinepass/gateway/internal/upstream"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config
	zlog, err := logger.New(config.LoadLoggerConfig())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	// Redis backs sessions, rate limiting and the response cache. Without it
	// sessions fall back to process-local storage and the middlewares no-op.
	rdb := config.NewRedisClient()
	scfg := config.LoadSessionConfig()
	var storage session.Storage
	if rdb != nil {
		storage = session.NewRedisStorage(rdb, scfg.TTL)
	} else {
		zlog.Warn("redis unavailable, sessions are process-local")
		storage = session.NewMemoryStorage()
	}

	ucfg := config.LoadUpstreamConfig()
	client := upstream.New(cfg.UpstreamBase, ucfg.Timeout, zlog)
	store := session.NewStore(client, storage, zlog)

	// Analytics series, restored from MySQL when a database is configured.
	series := analytics.NewSeries()
	var repo *analytics.Repo
	if cfg.AnalyticsDBConfigured() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			zlog.Error("analytics database unavailable", zap.Error(err))
		} else {
			defer db.Close()
			repo = analytics.NewRepo(db)
		}
	}
	recorder := analytics.NewRecorder(series, repo, zlog)
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 10*time.Second)
	recorder.Restore(restoreCtx)
	cancelRestore()

	var receipts notification.ReceiptPublisher
	if cfg.AmqpURL != "" {
		receipts = queue.NewPublisher(cfg.AmqpURL, zlog)
	}

	streamCfg := config.LoadStreamConfig()
	mgr := notification.NewManager(client, receipts, notification.ManagerOptions{
		BackoffFloor: streamCfg.BackoffFloor,
		BackoffCap:   streamCfg.BackoffCap,
		FeedCap:      streamCfg.FeedCap,
		PrimeLimit:   streamCfg.PrimeLimit,
		OnAnalytics:  recorder.HandleEvent,
	}, zlog)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Booking confirmations arrive over the broker and fan out to the feeds
	// of the users they belong to.
	if cfg.AmqpURL != "" {
		go queue.StartBookingConsumer(rootCtx, cfg.AmqpURL, mgr, zlog)
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e) // Register application routes

	auth := handler.NewAuthHandler(store, mgr, scfg.CookieName, scfg.TTL, scfg.Secure, zlog)
	notif := handler.NewNotificationHandler(mgr, zlog)
	stats := handler.NewAnalyticsHandler(recorder)

	router.RegisterAuth(e, auth, store, cfg, scfg, rdb)
	router.RegisterNotifications(e, notif, store, cfg, scfg)
	router.RegisterAnalytics(e, stats, store, cfg, scfg, rdb)

	addr := ":" + cfg.Port // Address string with port
	zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mgr.Shutdown()
		if err := e.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := e.Start(addr); err != nil { // Start HTTP server
		zlog.Info("server stopped", zap.Error(err))
	}
}
