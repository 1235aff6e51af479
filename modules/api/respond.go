package api

import (
	"errors"
	"log"

	domain "github.com/example/task-service/domain/task"
	taskmod "github.com/example/task-service/modules/task"
	"github.com/gofiber/fiber/v2"
)

// respondError renders any operation failure as the canonical
// {message, details} envelope. Every kind is a client-visible 400 in legacy
// mode; strict mode lifts persistence faults to 500 while leaving every
// other kind untouched.
func respondError(c *fiber.Ctx, strict bool, err error) error {
	message := "request failed"
	status := fiber.StatusBadRequest

	switch {
	case errors.Is(err, ErrMediaNotSupported):
		message = "requested media type is not supported"
	case errors.Is(err, ErrUnsupportedContentType):
		message = "request body must be declared as application/json"
	case errors.Is(err, ErrMalformedBody):
		message = "request body is not valid JSON"
	case errors.Is(err, ErrInvalidAttribute):
		message = "request carries an invalid attribute"
	case errors.Is(err, taskmod.ErrInvalidStatus):
		message = "requested status is not a known status"
	case errors.Is(err, taskmod.ErrIllegalTransition):
		message = "requested status transition is not allowed"
	case errors.Is(err, domain.ErrNotFound):
		message = "requested task does not exist"
	case errors.Is(err, taskmod.ErrStoreUnavailable):
		message = "task store failed to complete the operation"
		log.Printf("[api] persistence failure: %v", err)
		if strict {
			status = fiber.StatusInternalServerError
		}
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: message,
		Details: err.Error(),
	})
}
