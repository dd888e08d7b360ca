package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"techlam/docs"
	"techlam/internal/app"
	"techlam/internal/cache"
	"techlam/internal/config"
	"techlam/internal/db"
	"techlam/internal/logger"
	"techlam/internal/storage"
)

// @title Techlam Content API
// @version 1.0
// @description Public portfolio and contact content with an authenticated editor surface.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		// sessions degrade to stateless JWTs until redis is back
		log.Warn("redis unavailable at startup", "addr", cfg.Redis.Addr, "error", err)
	}

	objects, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return err
	}

	a := app.New(app.Options{
		Config:  cfg,
		DB:      gormDB,
		Cache:   cacheClient,
		Objects: objects,
		Logger:  log,
	})
	if err := a.Images.EnsureBucket(ctx); err != nil {
		log.Warn("image bucket not ready, uploads will fail", "bucket", cfg.Storage.Bucket, "error", err)
	}

	if host := cfg.Server.SwaggerHost; host != "" {
		host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	}
	log.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("listening", "addr", addr)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
