package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/workspace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := storage.Open(initCtx, cfg.StorageDSN)
	cancel()
	if err != nil {
		logger.Error("storage_init_failed", "error", err)
		os.Exit(1)
	}

	api := apiclient.NewClient(cfg.APIBaseURL, cfg.APITimeout)

	mock, err := catalog.LoadMockData()
	if err != nil {
		logger.Error("mock_data_invalid", "error", err)
		os.Exit(1)
	}
	catalogSvc := &catalog.Service{API: api, Mock: mock}

	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		esClient, err := search.NewClient(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		cancel()
		if err != nil {
			logger.Warn("search_index_disabled", "error", err)
		} else {
			catalogSvc.Searcher = search.NewSearcher(esClient, cfg.ESIndex)
		}
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	registry := workspace.NewRegistry(store, api, cfg.SessionInitWait)
	registry.StartJanitor(ctx, cfg.SessionIdleTTL/4, cfg.SessionIdleTTL)

	e := httpserver.New(&httpserver.Deps{
		Logger:       logger,
		Registry:     registry,
		Auth:         api,
		Catalog:      catalogSvc,
		Checkout:     checkout.NewService(api),
		Events:       publisher,
		LoginRate:    cfg.LoginRate,
		CookieSecure: cfg.CookieSecure,
		Ready:        store.Ping,
	})

	go func() {
		logger.Info("server_starting", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	registry.Close()

	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("storage_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
