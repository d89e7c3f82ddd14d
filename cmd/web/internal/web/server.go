package web

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/api/lead_api"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/api/scrape_api"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/api/video_api"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/api/webhook_api"
	"thirdcoast.systems/leadwatch/internal/application"
)

type Webserver struct {
	*echo.Echo
	app *application.App
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

func NewWebserver(ctx context.Context, app *application.App) (*Webserver, error) {
	e := echo.New()
	e.Validator = &requestValidator{v: validator.New()}

	webserver := &Webserver{
		Echo: e,
		app:  app,
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("2M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() error {
	apiGroup := s.Group("/api")

	apiGroup.POST("/scrape", scrape_api.HandleRunCycle(s.app.Orchestrator))
	apiGroup.POST("/webhook/apify", webhook_api.HandleApify(s.app.Receiver, s.app.Config.WebhookSecret))

	apiGroup.GET("/videos", video_api.HandleIndex(s.app.Videos))
	apiGroup.POST("/videos", video_api.HandleRegister(s.app.Videos))
	apiGroup.POST("/videos/:id/deactivate", video_api.HandleDeactivate(s.app.Videos))

	apiGroup.GET("/leads", lead_api.HandleIndex(s.app.Leads))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	return nil
}
