// Package app assembles repositories, services and handlers into an HTTP server.
package app

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"techlam/internal/auth"
	"techlam/internal/cache"
	"techlam/internal/config"
	"techlam/internal/db"
	"techlam/internal/handler"
	"techlam/internal/metrics"
	"techlam/internal/repository"
	"techlam/internal/router"
	"techlam/internal/service"
	"techlam/internal/storage"
)

// Options are the external resources the server runs on.
type Options struct {
	Config  *config.Config
	DB      *gorm.DB
	Cache   *cache.Client
	Objects storage.ObjectClient
	// Mailer defaults to a LogMailer.
	Mailer service.Mailer
	// Registry defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// App is a fully wired server.
type App struct {
	Echo     *echo.Echo
	Images   *storage.ImageStore
	Roles    repository.RoleRepository
	Users    repository.UserRepository
	Registry *prometheus.Registry
}

// New wires every layer and registers the routes.
func New(opts Options) *App {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = service.LogMailer{Logger: logger}
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	collector := metrics.NewCollector(registry)

	// Repositories
	userRepo := repository.NewUserRepository(opts.DB)
	roleRepo := repository.NewRoleRepository(opts.DB)
	projectRepo := repository.NewProjectRepository(opts.DB)
	contactRepo := repository.NewContactInfoRepository(opts.DB)
	enquiryRepo := repository.NewEnquiryRepository(opts.DB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(opts.Cache)
	images := storage.NewImageStore(opts.Objects, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)

	// Services
	userService := service.NewUserService(userRepo, opts.Cache)
	roleResolver := service.NewRoleResolver(roleRepo, logger)
	authService := service.NewAuthService(userRepo, userService, jwtService, tokenStore, mailer, collector, service.AuthOptions{
		RequireEmailVerification: cfg.Auth.RequireEmailVerification,
		VerificationTTL:          cfg.Auth.VerificationTTL,
		MinPasswordLength:        cfg.Auth.MinPasswordLength,
		VerifyURL:                cfg.Auth.VerifyURL,
	})
	projectService := service.NewProjectService(projectRepo, collector, service.WithImageCleanup(images, logger))
	contactService := service.NewContactService(contactRepo, collector)
	imageService := service.NewImageService(images, cfg.Storage.MaxImageBytes, collector)
	enquiryService := service.NewEnquiryService(enquiryRepo, collector)

	// Handlers
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService, roleResolver, logger),
		Project: handler.NewProjectHandler(projectService),
		Contact: handler.NewContactHandler(contactService),
		Image:   handler.NewImageHandler(imageService),
		Enquiry: handler.NewEnquiryHandler(enquiryService),
		User:    handler.NewUserHandler(),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return db.Ping(ctx, opts.DB) },
			"redis":    opts.Cache.Ping,
		}),
	}

	e := echo.New()
	router.Register(e, cfg, handlers, router.Deps{
		JWT:      jwtService,
		Sessions: tokenStore,
		Roles:    roleResolver,
		Metrics:  collector,
		Gatherer: registry,
		Logger:   logger,
	})

	return &App{
		Echo:     e,
		Images:   images,
		Roles:    roleRepo,
		Users:    userRepo,
		Registry: registry,
	}
}
