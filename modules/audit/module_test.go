package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/example/task-service/domain/task"
	"github.com/example/task-service/events"
	"github.com/example/task-service/modules/task"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string {
	return &s
}

func TestTrailRecordsHandledEvents(t *testing.T) {
	m := NewModule()
	ctx := context.Background()

	require.NoError(t, m.handleCreated(ctx, events.TaskCreatedEvent{
		TaskID: "task-1", Status: string(domain.StatusPendiente), CreatedAt: time.Now(),
	}, nil))
	require.NoError(t, m.handleUpdated(ctx, events.TaskUpdatedEvent{
		TaskID: "task-1", Description: "buy milk", UpdatedAt: time.Now(),
	}, nil))
	require.NoError(t, m.handleStatusChanged(ctx, events.TaskStatusChangedEvent{
		TaskID: "task-1", From: domain.StatusPendiente, To: domain.StatusTerminado, ChangedAt: time.Now(),
	}, nil))
	require.NoError(t, m.handleDeleted(ctx, events.TaskDeletedEvent{
		TaskID: "task-1", DeletedAt: time.Now(),
	}, nil))

	trail := m.Trail()
	require.Len(t, trail, 4)

	kinds := make([]string, 0, len(trail))
	for _, entry := range trail {
		require.Equal(t, "task-1", entry.TaskID)
		require.False(t, entry.Timestamp.IsZero())
		kinds = append(kinds, entry.Kind)
	}
	require.Equal(t, []string{"created", "updated", "status_changed", "deleted"}, kinds)
	require.Equal(t, "PENDIENTE -> TERMINADO", trail[2].Detail)
}

func TestTrailReturnsCopy(t *testing.T) {
	m := NewModule()
	m.record("task-1", "created", "task created with status PENDIENTE")

	trail := m.Trail()
	trail[0].Kind = "tampered"

	require.Equal(t, "created", m.Trail()[0].Kind)
}

// Runs a real application so events travel through the framework bus from
// the lifecycle service to the registered consumers.
func TestTrailFollowsTaskLifecycle(t *testing.T) {
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(5*time.Second),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	require.NoError(t, err)

	auditModule := NewModule()
	taskModule := task.NewModule(filepath.Join(t.TempDir(), "tasks.db"))
	app.Register(auditModule)
	app.Register(taskModule)

	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() { _ = app.Stop(context.Background()) })

	service := taskModule.GetService()
	require.NotNil(t, service)
	ctx := context.Background()

	created, err := service.Create(ctx, task.CreateRequest{Description: "write report"})
	require.NoError(t, err)

	_, err = service.Update(ctx, created.ID, task.UpdateRequest{Description: strptr("write the report")})
	require.NoError(t, err)

	_, err = service.Update(ctx, created.ID, task.UpdateRequest{Status: strptr(string(domain.StatusTerminado))})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))

	// Delivery is asynchronous; wait for the full trail before asserting.
	require.Eventually(t, func() bool {
		return len(auditModule.Trail()) == 4
	}, 2*time.Second, 10*time.Millisecond, "expected four lifecycle events in the trail")

	counts := make(map[string]int)
	for _, entry := range auditModule.Trail() {
		require.Equal(t, created.ID, entry.TaskID)
		counts[entry.Kind]++
	}
	require.Equal(t, map[string]int{
		"created":        1,
		"updated":        1,
		"status_changed": 1,
		"deleted":        1,
	}, counts)
}
