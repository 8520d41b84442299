package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"terroir/internal/config"
	"terroir/internal/metrics"
	"terroir/internal/services"
	"terroir/internal/winery"
)

// Deps bundles the process-wide collaborators handlers need. All of
// them are constructed once at startup and read-only thereafter.
type Deps struct {
	Dataset     *winery.Dataset
	WineSearch  services.WineSearchService
	Aggregator  *services.Aggregator
	Interpreter *services.QueryInterpreter
	Chat        *services.ChatManager
}

type Server struct {
	app    *fiber.App
	config *config.Config
	logger *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	app := fiber.New()

	// Inject config and services into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("deps", deps)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	// Health endpoints
	app.Get("/healthz", func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		// Deep health: dataset loaded and model client configured. The
		// model service itself is a third-party dependency whose outages
		// are tolerated, so no live probe is made here.
		genaiStatus := "ok"
		if cfg.GenAI.APIKey == "" || cfg.GenAI.Model == "" {
			genaiStatus = "unconfigured"
		}

		datasetStatus := "ok"
		if deps.Dataset == nil || len(deps.Dataset.All()) == 0 {
			datasetStatus = "error"
		}

		status := "ok"
		if datasetStatus != "ok" {
			status = "error"
		}

		return c.JSON(fiber.Map{
			"status":  status,
			"dataset": datasetStatus,
			"genai":   genaiStatus,
		})
	})

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	v1 := app.Group("/v1")

	v1.Get("/wineries", listWineriesHandler)
	v1.Get("/wineries/:id", getWineryHandler)
	v1.Get("/wineries/:id/wines", wineryWinesHandler)
	v1.Post("/wineries/:id/describe", describeWineryHandler)
	v1.Get("/varieties", listVarietiesHandler)
	v1.Get("/districts", listDistrictsHandler)

	v1.Post("/search", aggregateSearchHandler)
	v1.Post("/query", queryHandler)

	v1.Post("/chat", createChatHandler)
	v1.Post("/chat/:id/messages", chatMessageHandler)
	v1.Delete("/chat/:id", deleteChatHandler)

	return &Server{app: app, config: cfg, logger: logger}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
