package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/parcelflow/parcelflow/internal/config"
	"github.com/parcelflow/parcelflow/internal/paystack"
	"github.com/parcelflow/parcelflow/internal/routes"
	"github.com/parcelflow/parcelflow/internal/terminal"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler converts every handler error into the JSON envelope. Internal
// detail is logged, never returned to the client.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		message := "something went wrong"

		var fiberErr *fiber.Error
		var apiErr *terminal.APIError
		var gatewayErr *paystack.GatewayError
		switch {
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		case errors.As(err, &apiErr):
			status = http.StatusBadGateway
			message = apiErr.Message
		case errors.As(err, &gatewayErr):
			status = http.StatusBadGateway
			message = gatewayErr.Message
		}

		if status >= http.StatusInternalServerError {
			reqID, _ := c.Locals("X-Request-ID").(string)
			logger.Error("request failed",
				"request_id", reqID,
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
	}
}
