package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/familydo/internal/collection"
	"github.com/dukerupert/familydo/internal/config"
	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/logging"
	"github.com/dukerupert/familydo/internal/middleware"
	"github.com/dukerupert/familydo/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.File)

	var store collection.Store
	if cfg.Gateway.StoreURL == config.MemoryStore {
		logger.Warn("using in-memory collection store, data is lost on exit")
		store = collection.NewMemStore()
	} else {
		store = collection.NewHTTPStore(collection.Config{
			BaseURL: cfg.Gateway.StoreURL,
			Timeout: cfg.Gateway.StoreTimeout,
		}, logger.With("component", "collection"))
	}

	dir := directory.New(store, logger.With("component", "directory"))
	srv := server.New(dir, logger)
	if len(cfg.Gateway.TrustedProxies) > 0 {
		clientIP, err := middleware.NewClientIP(cfg.Gateway.TrustedProxies)
		if err != nil {
			logger.Error("invalid trusted proxies", "error", err)
			os.Exit(1)
		}
		srv.TrustProxies(clientIP)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	srv.RunBackground(bgCtx)

	httpServer := &http.Server{
		Addr:              cfg.Gateway.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("familydo gateway starting", "addr", httpServer.Addr, "store", cfg.Gateway.StoreURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
