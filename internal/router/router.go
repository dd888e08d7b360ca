package router

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"techlam/internal/auth"
	"techlam/internal/config"
	"techlam/internal/handler"
	"techlam/internal/metrics"
	"techlam/internal/model"
	"techlam/internal/service"
)

// multipartOverhead is added to the image size limit to leave room for form boundaries and headers.
const multipartOverhead = 1 << 20

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth    *handler.AuthHandler
	Project *handler.ProjectHandler
	Contact *handler.ContactHandler
	Image   *handler.ImageHandler
	Enquiry *handler.EnquiryHandler
	User    *handler.UserHandler
	Health  *handler.HealthHandler
}

// Deps are the collaborators the middleware needs.
type Deps struct {
	JWT      *auth.JWTService
	Sessions auth.TokenStoreInterface
	Roles    service.RoleResolver
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, h Handlers, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(Metrics(collector))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if h.Health != nil {
		e.GET("/healthz", h.Health.Live)
		e.GET("/readyz", h.Health.Ready)
	}
	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(deps.Gatherer)))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	authLimit := RateLimit(cfg.Rate.AuthPerMinute, cfg.Rate.AuthBurst)
	session := []echo.MiddlewareFunc{JWTAuth(deps.JWT.Secret()), RequireSession(deps.Sessions)}
	editor := append(session[:len(session):len(session)], RequireRole(deps.Roles, model.RoleEditor))
	admin := append(session[:len(session):len(session)], RequireRole(deps.Roles, model.RoleAdmin))

	// Auth
	api.POST("/auth/signup", h.Auth.SignUp, authLimit)
	api.POST("/auth/signin", h.Auth.SignIn, authLimit)
	api.POST("/auth/signout", h.Auth.SignOut)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/auth/verify", h.Auth.Verify)
	api.GET("/auth/me", h.Auth.Me, session...)
	api.GET("/auth/role", h.Auth.Role, session...)

	// Projects
	api.GET("/projects", h.Project.List)
	api.GET("/projects/categories", h.Project.Categories)
	api.GET("/projects/:id", h.Project.Get)
	api.POST("/projects", h.Project.Create, editor...)
	api.PUT("/projects/:id", h.Project.Update, editor...)
	api.DELETE("/projects/:id", h.Project.Delete, editor...)

	// Contact info
	api.GET("/contact-info", h.Contact.Get)
	api.PUT("/contact-info", h.Contact.Upsert, editor...)

	// Images
	imageLimit := middleware.BodyLimit(strconv.FormatInt(cfg.Storage.MaxImageBytes+multipartOverhead, 10))
	api.POST("/images", h.Image.Upload, append(editor[:len(editor):len(editor)], imageLimit)...)

	// Enquiries
	api.POST("/enquiries", h.Enquiry.Submit, RateLimit(cfg.Rate.EnquiryPerMinute, cfg.Rate.EnquiryBurst))
	api.GET("/enquiries", h.Enquiry.List, editor...)

	// Admin
	api.GET("/admin/users", h.User.ListUsers, admin...)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
