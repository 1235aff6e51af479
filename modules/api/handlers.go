package api

import (
	"fmt"

	domain "github.com/example/task-service/domain/task"
	taskmod "github.com/example/task-service/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers holds the HTTP handlers for the task surface.
type Handlers struct {
	service *taskmod.Service
	strict  bool
}

// NewHandlers creates the task handlers. When strict is true, persistence
// faults surface as 500 instead of the legacy 400.
func NewHandlers(service *taskmod.Service, strict bool) *Handlers {
	return &Handlers{
		service: service,
		strict:  strict,
	}
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	if err := checkAccept(c.Get(fiber.HeaderAccept)); err != nil {
		return respondError(c, h.strict, err)
	}

	tasks, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, h.strict, err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return c.JSON(tasks)
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	if err := checkAccept(c.Get(fiber.HeaderAccept)); err != nil {
		return respondError(c, h.strict, err)
	}

	task, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.strict, err)
	}
	return c.JSON(task)
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	if err := checkContentType(c.Get(fiber.HeaderContentType)); err != nil {
		return respondError(c, h.strict, err)
	}

	req, err := parseCreateBody(c.Body())
	if err != nil {
		return respondError(c, h.strict, err)
	}

	task, err := h.service.Create(c.Context(), req)
	if err != nil {
		return respondError(c, h.strict, err)
	}
	return c.JSON(task)
}

// UpdateTask handles PUT /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	if err := checkContentType(c.Get(fiber.HeaderContentType)); err != nil {
		return respondError(c, h.strict, err)
	}
	if err := checkAccept(c.Get(fiber.HeaderAccept)); err != nil {
		return respondError(c, h.strict, err)
	}

	req, err := parseUpdateBody(c.Body())
	if err != nil {
		return respondError(c, h.strict, err)
	}

	task, err := h.service.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.strict, err)
	}
	return c.JSON(task)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.Context(), id); err != nil {
		return respondError(c, h.strict, err)
	}
	return c.JSON(ConfirmationResponse{
		Message: "task deleted",
		Details: fmt.Sprintf("task %s no longer exists", id),
	})
}

// AllowOptions returns an OPTIONS handler advertising the given methods
// with an empty body.
func AllowOptions(allow string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allow)
		c.Status(fiber.StatusOK)
		return nil
	}
}

// MethodNotAllowed rejects methods outside the supported surface with a raw
// text body.
func MethodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).SendString("method not allowed")
}
