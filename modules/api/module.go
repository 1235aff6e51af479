package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-service/modules/audit"
	"github.com/example/task-service/modules/cache"
	taskmod "github.com/example/task-service/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module is the driving adapter that exposes the task REST surface.
type Module struct {
	app         *fiber.App
	handlers    *Handlers
	taskModule  *taskmod.Module
	cacheModule *cache.Module
	auditModule *audit.Module
	port        int
	strict      bool
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module listening on port. strict controls
// whether persistence faults are surfaced as 500 instead of the legacy 400.
func NewModule(port int, strict bool) *Module {
	return &Module{
		port:   port,
		strict: strict,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetTaskModule sets the task module dependency.
func (m *Module) SetTaskModule(tm *taskmod.Module) {
	m.taskModule = tm
}

// SetCacheModule exposes cache statistics through the API when caching is
// enabled. Must be called before Start; the cache module must start first.
func (m *Module) SetCacheModule(cm *cache.Module) {
	m.cacheModule = cm
}

// SetAuditModule exposes the recorded lifecycle trail through the API.
// Must be called before Start.
func (m *Module) SetAuditModule(am *audit.Module) {
	m.auditModule = am
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule == nil {
		return fmt.Errorf("task module not set")
	}
	service := m.taskModule.GetService()
	if service == nil {
		return fmt.Errorf("task service not available")
	}

	m.handlers = NewHandlers(service, m.strict)

	m.app = fiber.New(fiber.Config{
		AppName:               "Task Service",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(allowAllOrigins)

	m.setupRoutes()

	go func() {
		addr := fmt.Sprintf(":%d", m.port)
		log.Printf("[api] Starting HTTP server on %s", addr)
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthHandler)
	if m.cacheModule != nil {
		m.app.Get("/cache/stats", m.cacheStatsHandler)
	}
	if m.auditModule != nil {
		m.app.Get("/audit/trail", m.auditTrailHandler)
	}

	RegisterRoutes(m.app, m.handlers)
}

// RegisterRoutes mounts the full task surface on app, including the
// unsupported methods and the OPTIONS handlers advertising the allowed ones.
func RegisterRoutes(app *fiber.App, h *Handlers) {
	app.Get("/tasks", h.ListTasks)
	app.Post("/tasks", h.CreateTask)
	app.Put("/tasks", MethodNotAllowed)
	app.Delete("/tasks", MethodNotAllowed)
	app.Options("/tasks", AllowOptions("OPTIONS,GET,POST"))

	app.Get("/tasks/:id", h.GetTask)
	app.Put("/tasks/:id", h.UpdateTask)
	app.Delete("/tasks/:id", h.DeleteTask)
	app.Post("/tasks/:id", MethodNotAllowed)
	app.Options("/tasks/:id", AllowOptions("OPTIONS,GET,DELETE,PUT"))
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"details": fiber.Map{
			"module": "api",
			"port":   m.port,
		},
	})
}

// cacheStatsHandler handles GET /cache/stats.
func (m *Module) cacheStatsHandler(c *fiber.Ctx) error {
	return c.JSON(m.cacheModule.GetCache().GetStats())
}

// auditTrailHandler handles GET /audit/trail.
func (m *Module) auditTrailHandler(c *fiber.Ctx) error {
	return c.JSON(m.auditModule.Trail())
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// allowAllOrigins stamps the permissive CORS header on every response,
// including the 405 and OPTIONS surface that never reaches a JSON handler.
func allowAllOrigins(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	return c.Next()
}

// errorHandler renders Fiber-level errors in the canonical envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Message: message,
		Details: err.Error(),
	})
}
