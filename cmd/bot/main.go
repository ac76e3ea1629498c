package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg_earning_bot/internal/config"
	"tg_earning_bot/internal/handler"
	"tg_earning_bot/internal/logging"
	"tg_earning_bot/internal/store"
	"tg_earning_bot/internal/telegram"
	"tg_earning_bot/internal/webhook"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	httpShutdownTimeout    = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":   "startup",
		"backend": cfg.StoreBackend,
	}).Info("configuration loaded")

	var (
		ledgerStore  store.Store
		storePinger  webhook.Pinger
		mongoManager *store.Manager
	)

	switch cfg.StoreBackend {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
		mongoManager, err = store.NewManager(connectCtx, cfg)
		cancel()
		if err != nil {
			logger.WithError(err).Error("mongo connection error")
			fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
			os.Exit(1)
		}

		logger.WithField("event", "mongo_connect").Info("connected to mongo")

		indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
		if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
			cancelIndexes()
			logger.WithError(err).Error("mongo index setup error")
			fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
			os.Exit(1)
		}
		cancelIndexes()

		logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

		ledgerStore = store.NewMongoStore(mongoManager.Accounts())
		storePinger = mongoManager

	default:
		fileStore := store.NewFileStore(cfg.UsersFile)
		ledgerStore = fileStore
		storePinger = fileStore

		logger.WithFields(logging.Fields{
			"event": "file_store",
			"path":  cfg.UsersFile,
		}).Info("using file-backed ledger")
	}

	gateway, err := telegram.NewGateway(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("telegram gateway setup error")
		fmt.Fprintf(os.Stderr, "telegram gateway setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram gateway initialized")

	router := handler.NewRouter(ledgerStore, gateway, cfg.BotID(), logger)
	server := webhook.NewServer(cfg.HTTPPort, cfg.PublicURL, router, gateway, storePinger, logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverDone := make(chan struct{})
	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.WithError(err).Error("webhook server error")
		}
		close(serverDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping webhook server")
	case <-serverDone:
		logger.WithField("event", "server_stopped_early").Warn("webhook server stopped before shutdown signal")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("webhook server shutdown error")
	}
	cancelShutdown()

	<-serverDone

	if mongoManager != nil {
		disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		if err := mongoManager.Close(disconnectCtx); err != nil {
			logger.WithError(err).Error("mongo disconnect error")
		} else {
			logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
		}
		cancelDisconnect()
	}

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
