package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/example/task-service/domain/task"
	"github.com/example/task-service/events"
	"github.com/example/task-service/modules/cache"
	"github.com/go-monolith/mono"
)

// Service is the lifecycle engine. It owns the legality of status
// transitions, the merging of partial updates, and the mutation timestamp.
// It is stateless between requests; all state lives in the store.
//
// The fetch-mutate-persist sequence in Update takes no cross-request locks:
// two concurrent updates to the same id can race and the later write wins.
// Concurrency control is the store's responsibility, not the engine's.
type Service struct {
	store    Store
	cache    *cache.Cache
	eventBus mono.EventBus
	now      func() time.Time
}

// NewService creates a lifecycle service on top of a store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// SetCache enables cache-aside reads. A nil cache leaves caching disabled.
func (s *Service) SetCache(c *cache.Cache) {
	s.cache = c
}

// SetEventBus enables lifecycle event emission.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.eventBus = bus
}

// Create stores a new task. Free-form attributes are copied through
// verbatim; the store assigns the id and the initial PENDIENTE status.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Task, error) {
	newTask := &domain.Task{
		Description: req.Description,
		Attributes:  req.Attributes,
		Date:        s.now(),
	}

	if err := s.store.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.invalidate(ctx, newTask.ID)
	s.publishCreated(newTask)

	return newTask, nil
}

// Get retrieves a single task, consulting the cache first when enabled.
func (s *Service) Get(ctx context.Context, id string) (*domain.Task, error) {
	if s.cache != nil {
		var cached domain.Task
		if hit, err := s.cache.Get(ctx, id, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	task, err := s.store.GetOne(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, id, task); err != nil {
			log.Printf("[task] Warning: failed to cache task %s: %v", id, err)
		}
	}
	return task, nil
}

// List retrieves all tasks, consulting the cache first when enabled.
func (s *Service) List(ctx context.Context) ([]domain.Task, error) {
	if s.cache != nil {
		var cached []domain.Task
		if hit, err := s.cache.Get(ctx, cache.ListKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	tasks, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.ListKey, tasks); err != nil {
			log.Printf("[task] Warning: failed to cache task list: %v", err)
		}
	}
	return tasks, nil
}

// Update applies a partial update to the task identified by id.
//
// A requested status must be one of the enumerated values; re-asserting the
// current status is an idempotent no-op, any other change must be permitted
// by the transition table. A requested description replaces the stored one.
// The mutation timestamp is stamped on every successful update, then the
// record is persisted and re-read so the returned task is the canonical
// post-update state rather than the in-memory merge.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Task, error) {
	current, err := s.store.GetOne(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	previous := current.Status
	if req.Status != nil {
		next := domain.Status(*req.Status)
		if !next.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
		if !domain.CanTransition(current.Status, next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, next)
		}
		current.Status = next
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	current.Date = s.now()

	// A concurrent delete between the fetch and the write leaves the store
	// reporting not-found; that is still a not-found, not a store fault.
	if err := s.store.Update(ctx, id, current); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// The store's update is not assumed to return the persisted record.
	updated, err := s.store.GetOne(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.invalidate(ctx, id)
	if updated.Status != previous {
		s.publishStatusChanged(id, previous, updated.Status)
	} else {
		s.publishUpdated(updated)
	}

	return updated, nil
}

// Delete removes the task identified by id. Existence is confirmed first so
// an unknown id reports not-found rather than a store fault; after that,
// any erase failure means the task must be assumed to still exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetOne(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.store.Erase(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.invalidate(ctx, id)
	s.publishDeleted(id)

	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("[task] Warning: failed to invalidate cache for task %s: %v", id, err)
	}
}

func (s *Service) publishCreated(t *domain.Task) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:      t.ID,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.Date,
	}
	if err := events.TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
		// Event publishing is best-effort; log but don't fail the operation
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
	}
}

func (s *Service) publishStatusChanged(id string, from, to domain.Status) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskStatusChangedEvent{
		TaskID:    id,
		From:      from,
		To:        to,
		ChangedAt: s.now(),
	}
	if err := events.TaskStatusChangedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskStatusChanged event for task %s: %v", id, err)
	}
}

func (s *Service) publishUpdated(t *domain.Task) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskUpdatedEvent{
		TaskID:      t.ID,
		Description: t.Description,
		UpdatedAt:   t.Date,
	}
	if err := events.TaskUpdatedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", t.ID, err)
	}
}

func (s *Service) publishDeleted(id string) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskDeletedEvent{
		TaskID:    id,
		DeletedAt: s.now(),
	}
	if err := events.TaskDeletedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", id, err)
	}
}
