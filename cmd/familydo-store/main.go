package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dukerupert/familydo/internal/config"
	"github.com/dukerupert/familydo/internal/database"
	"github.com/dukerupert/familydo/internal/logging"
	"github.com/dukerupert/familydo/internal/store"
	"github.com/dukerupert/familydo/internal/storeapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if logging.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Store.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Store.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	records := store.NewRecordStore(db)
	if cfg.Store.BcryptCost > 0 {
		records.SetHashCost(cfg.Store.BcryptCost)
	}
	router := storeapi.NewRouter(storeapi.NewHandler(records, logger.With("component", "storeapi")))

	httpServer := &http.Server{
		Addr:              cfg.Store.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("familydo store starting", "addr", httpServer.Addr, "db", cfg.Store.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
