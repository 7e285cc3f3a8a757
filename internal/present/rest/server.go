package rest

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/totegamma/enovia-go/internal/plmfake"
	"github.com/totegamma/enovia-go/internal/present/rest/middleware"
)

type Config = middleware.Config

// NewServer serves space over the modeler wire contract.
func NewServer(space *plmfake.Space, conf Config, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware("plmfake"))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	auth := middleware.NewAuthMiddleware(space, conf)
	handler := NewHandler(space, logger)
	handler.RegisterRoutes(e, auth)
	return e
}
