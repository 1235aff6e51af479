package task

import (
	"context"

	domain "github.com/example/task-service/domain/task"
)

// Store is the persistence collaborator contract consumed by the service.
// GetOne, Update and Erase fail with domain.ErrNotFound when the id does
// not resolve; any other failure is a persistence fault.
type Store interface {
	GetAll(ctx context.Context) ([]domain.Task, error)
	GetOne(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, id string, task *domain.Task) error
	Erase(ctx context.Context, id string) error
}

// CreateRequest carries the validated payload of a create operation.
// Status and id are never client-supplied; the store assigns both.
type CreateRequest struct {
	Description string
	Attributes  domain.Attributes
}

// UpdateRequest carries the validated payload of an update operation.
// Nil pointers mean the field was absent from the request and is left
// untouched.
type UpdateRequest struct {
	Status      *string
	Description *string
}
