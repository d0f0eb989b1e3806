// internal/api/server.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/common/observability"
)

type Server struct {
	echo *echo.Echo
	cfg  config.ServerConfig
	obs  *observability.Observability
	log  logger.Logger
}

// NewServer builds the echo instance with the standard middleware chain and
// registers h's routes.
func NewServer(cfg config.ServerConfig, h *Handler, obs *observability.Observability, log logger.Logger) *Server {
	log = log.WithFields(map[string]interface{}{"component": "api"})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(requestLogger(log))
	if obs != nil {
		e.Use(requestMetrics(obs))
	}

	h.RegisterRoutes(e)

	return &Server{echo: e, cfg: cfg, obs: obs, log: log}
}

func (s *Server) Echo() *echo.Echo { return s.echo }

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Millisecond,
	}

	s.log.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})

	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	err := s.echo.Shutdown(ctx)
	if s.obs != nil {
		if obsErr := s.obs.Shutdown(ctx); obsErr != nil {
			s.log.Warn("failed to shut down meter provider", map[string]interface{}{"error": obsErr})
		}
	}
	return err
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"requestId": v.RequestID,
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				log.Warn("request completed with error", fields)
				return nil
			}
			log.Debug("request completed", fields)
			return nil
		},
	})
}

func requestMetrics(obs *observability.Observability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.RecordRequest(c.Request().Context(), c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
