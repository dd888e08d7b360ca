package router

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"techlam/internal/auth"
	apperrors "techlam/internal/errors"
	"techlam/internal/metrics"
	"techlam/internal/model"
	"techlam/internal/service"
)

// RoleContextKey holds the role resolved by RequireRole for the current request.
const RoleContextKey = "role"

func abort(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// JWTAuth parses the bearer token into auth.Claims. Any failure is a 401.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    auth.ContextKey,
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return abort(apperrors.ErrUnauthenticated)
		},
	})
}

// RequireSession rejects refresh tokens presented as bearer tokens and sessions that were signed out.
// Revocation lookups fail open when redis is unreachable; the access token's own expiry still applies.
func RequireSession(sessions auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := auth.ClaimsFromToken(c.Get(auth.ContextKey))
			if !ok || claims.Type != auth.TokenTypeAccess {
				return abort(apperrors.ErrUnauthenticated)
			}
			if claims.SessionID != "" {
				revoked, err := sessions.IsSessionRevoked(c.Request().Context(), claims.SessionID)
				if err == nil && revoked {
					return abort(apperrors.ErrUnauthenticated)
				}
			}
			return next(c)
		}
	}
}

// RequireRole resolves the caller's role on every request and rejects callers below min.
func RequireRole(roles service.RoleResolver, min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := auth.ClaimsFromToken(c.Get(auth.ContextKey))
			if !ok {
				return abort(apperrors.ErrUnauthenticated)
			}
			role := model.RoleNone
			if userID, err := uuidFromClaims(claims); err == nil {
				role = roles.Resolve(c.Request().Context(), userID)
			}
			if !role.Satisfies(min) {
				return abort(apperrors.ErrForbidden)
			}
			c.Set(RoleContextKey, role)
			return next(c)
		}
	}
}

// RateLimit allows perMinute requests per client IP with the given burst.
func RateLimit(perMinute float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perMinute / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: "could not identify client",
				Code:  apperrors.CodeForbidden,
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: "too many requests, try again shortly",
				Code:  apperrors.CodeRateLimited,
			})
		},
	})
}

// Metrics records every request under its route template.
func Metrics(collector metrics.MetricsCollector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			collector.RecordRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
