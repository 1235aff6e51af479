package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-service/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	TaskID    string    `json:"task_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Module keeps an in-memory audit trail of task lifecycle events. It is a
// driven adapter subscribing to the task module's typed events; the trail is
// what makes the one-way terminal statuses auditable after the fact.
type Module struct {
	entries []Entry
	mu      sync.RWMutex
}

var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)

func NewModule() *Module {
	return &Module{
		entries: make([]Entry, 0),
	}
}

func (m *Module) Name() string {
	return "audit"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskStatusChangedV1, m.handleStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register TaskStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[audit] Registered event consumers: TaskCreated, TaskStatusChanged, TaskUpdated, TaskDeleted")
	return nil
}

func (m *Module) handleCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "created", fmt.Sprintf("task created with status %s", event.Status))
	return nil
}

func (m *Module) handleStatusChanged(_ context.Context, event events.TaskStatusChangedEvent, _ *mono.Msg) error {
	log.Printf("[audit] Task %s: %s -> %s", event.TaskID, event.From, event.To)
	m.record(event.TaskID, "status_changed", fmt.Sprintf("%s -> %s", event.From, event.To))
	return nil
}

func (m *Module) handleUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "updated", "task fields updated")
	return nil
}

func (m *Module) handleDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "deleted", "task deleted")
	return nil
}

func (m *Module) record(taskID, kind, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Entry{
		TaskID:    taskID,
		Kind:      kind,
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

// Trail returns a copy of the recorded entries.
func (m *Module) Trail() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, len(m.entries))
	copy(result, m.entries)
	return result
}

func (m *Module) Start(_ context.Context) error {
	log.Println("[audit] Module started - listening for task events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	log.Println("[audit] Module stopped")
	return nil
}
