package server

import (
	"context"
	"time"

	"plantguard-be/internal/bootstrap"
	"plantguard-be/internal/config"
	"plantguard-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	bodyLimit := cfg.App.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}

	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "PlantGuard API " + cfg.App.Version,
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: serverutils.ErrorHandler(container.Logger),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(requestLogger(container))

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("server", "Server is running", map[string]interface{}{
		"addr":       "http://localhost:" + s.cfg.App.Port,
		"classifier": s.container.Classifier.Mode(),
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.HealthController.RegisterRoutes(app)

	api := app.Group("/api")
	c.DiagnosisController.RegisterRoutes(api)
	c.ChatController.RegisterRoutes(api)
}

func requestLogger(c *bootstrap.Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		if err != nil {
			// Let the error handler set the final status before logging.
			if herr := ctx.App().ErrorHandler(ctx, err); herr != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError)
			}
		}
		c.Logger.Debug("http", "Request", map[string]interface{}{
			"method":     ctx.Method(),
			"path":       ctx.Path(),
			"status":     ctx.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": serverutils.RequestID(ctx),
		})
		return nil
	}
}
