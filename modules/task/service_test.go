package task

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/example/task-service/domain/task"
)

// mockStore implements Store for testing.
type mockStore struct {
	tasks map[string]*domain.Task

	getCalls  int
	getErrAt  int // fail the n-th GetOne call (1-based), 0 disables
	createErr error
	updateErr error
	eraseErr  error

	// onUpdate lets a test mutate the stored record during Update, so the
	// re-read contract is observable.
	onUpdate func(stored *domain.Task)
}

func newMockStore() *mockStore {
	return &mockStore{
		tasks: make(map[string]*domain.Task),
	}
}

func (m *mockStore) GetAll(_ context.Context) ([]domain.Task, error) {
	result := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockStore) GetOne(_ context.Context, id string) (*domain.Task, error) {
	m.getCalls++
	if m.getErrAt > 0 && m.getCalls == m.getErrAt {
		return nil, errors.New("connection reset")
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockStore) Create(_ context.Context, t *domain.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	if t.ID == "" {
		t.ID = "task-1"
	}
	if t.Status == "" {
		t.Status = domain.StatusPendiente
	}
	copied := *t
	m.tasks[t.ID] = &copied
	return nil
}

func (m *mockStore) Update(_ context.Context, id string, t *domain.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	copied := *t
	copied.ID = id
	m.tasks[id] = &copied
	if m.onUpdate != nil {
		m.onUpdate(m.tasks[id])
	}
	return nil
}

func (m *mockStore) Erase(_ context.Context, id string) error {
	if m.eraseErr != nil {
		return m.eraseErr
	}
	if _, ok := m.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) seed(id string, status domain.Status) {
	m.tasks[id] = &domain.Task{
		ID:     id,
		Status: status,
		Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func strptr(s string) *string {
	return &s
}

func TestServiceCreate(t *testing.T) {
	store := newMockStore()
	service := NewService(store)

	created, err := service.Create(context.Background(), CreateRequest{
		Description: "buy milk",
		Attributes:  domain.Attributes{"category": "errands"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID == "" {
		t.Error("expected store-assigned id")
	}
	if created.Status != domain.StatusPendiente {
		t.Errorf("expected status %s, got %s", domain.StatusPendiente, created.Status)
	}
	if created.Date.IsZero() {
		t.Error("expected mutation timestamp to be stamped")
	}
	if created.Attributes["category"] != "errands" {
		t.Errorf("expected attributes to be copied through, got %v", created.Attributes)
	}
}

func TestServiceCreatePersistenceFailure(t *testing.T) {
	store := newMockStore()
	store.createErr = errors.New("disk full")
	service := NewService(store)

	_, err := service.Create(context.Background(), CreateRequest{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestServiceUpdateSameStatusIsNoOp(t *testing.T) {
	for _, status := range []domain.Status{
		domain.StatusPendiente,
		domain.StatusTerminado,
		domain.StatusCancelado,
	} {
		t.Run(string(status), func(t *testing.T) {
			store := newMockStore()
			store.seed("task-1", status)
			service := NewService(store)

			before := store.tasks["task-1"].Date
			updated, err := service.Update(context.Background(), "task-1", UpdateRequest{
				Status: strptr(string(status)),
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if updated.Status != status {
				t.Errorf("expected status unchanged at %s, got %s", status, updated.Status)
			}
			if !updated.Date.After(before) {
				t.Errorf("expected date to advance past %s, got %s", before, updated.Date)
			}
		})
	}
}

func TestServiceUpdateTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    domain.Status
		to      domain.Status
		allowed bool
	}{
		{"pendiente to terminado", domain.StatusPendiente, domain.StatusTerminado, true},
		{"pendiente to cancelado", domain.StatusPendiente, domain.StatusCancelado, true},
		{"terminado to cancelado", domain.StatusTerminado, domain.StatusCancelado, false},
		{"cancelado to terminado", domain.StatusCancelado, domain.StatusTerminado, false},
		{"terminado to pendiente", domain.StatusTerminado, domain.StatusPendiente, false},
		{"cancelado to pendiente", domain.StatusCancelado, domain.StatusPendiente, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockStore()
			store.seed("task-1", tc.from)
			service := NewService(store)

			updated, err := service.Update(context.Background(), "task-1", UpdateRequest{
				Status: strptr(string(tc.to)),
			})

			if tc.allowed {
				if err != nil {
					t.Fatalf("Update() error = %v", err)
				}
				if updated.Status != tc.to {
					t.Errorf("expected status %s, got %s", tc.to, updated.Status)
				}
				return
			}

			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("expected ErrIllegalTransition, got %v", err)
			}
			if store.tasks["task-1"].Status != tc.from {
				t.Errorf("expected stored status untouched at %s, got %s", tc.from, store.tasks["task-1"].Status)
			}
		})
	}
}

func TestServiceUpdateInvalidStatus(t *testing.T) {
	store := newMockStore()
	store.seed("task-1", domain.StatusPendiente)
	service := NewService(store)

	_, err := service.Update(context.Background(), "task-1", UpdateRequest{
		Status: strptr("DONE"),
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestServiceUpdateDescription(t *testing.T) {
	store := newMockStore()
	store.seed("task-1", domain.StatusPendiente)
	service := NewService(store)

	updated, err := service.Update(context.Background(), "task-1", UpdateRequest{
		Description: strptr("call plumber"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Description != "call plumber" {
		t.Errorf("expected description replaced, got %q", updated.Description)
	}
	if updated.Status != domain.StatusPendiente {
		t.Errorf("expected status untouched, got %s", updated.Status)
	}
}

func TestServiceUpdateNotFound(t *testing.T) {
	store := newMockStore()
	service := NewService(store)

	_, err := service.Update(context.Background(), "doesnotexist", UpdateRequest{
		Status: strptr(string(domain.StatusTerminado)),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceUpdateReturnsReReadState(t *testing.T) {
	store := newMockStore()
	store.seed("task-1", domain.StatusPendiente)
	// The store normalizes on write; the service must hand back the
	// persisted record, not its in-memory merge.
	store.onUpdate = func(stored *domain.Task) {
		stored.Description = "normalized"
	}
	service := NewService(store)

	updated, err := service.Update(context.Background(), "task-1", UpdateRequest{
		Description: strptr("raw"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Description != "normalized" {
		t.Errorf("expected re-read state %q, got %q", "normalized", updated.Description)
	}
	if store.getCalls != 2 {
		t.Errorf("expected fetch plus re-read (2 GetOne calls), got %d", store.getCalls)
	}
}

func TestServiceUpdatePersistenceFailures(t *testing.T) {
	t.Run("write fails", func(t *testing.T) {
		store := newMockStore()
		store.seed("task-1", domain.StatusPendiente)
		store.updateErr = errors.New("disk full")
		service := NewService(store)

		_, err := service.Update(context.Background(), "task-1", UpdateRequest{
			Status: strptr(string(domain.StatusTerminado)),
		})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
		if store.tasks["task-1"].Status != domain.StatusPendiente {
			t.Error("expected no visible effect after failed write")
		}
	})

	t.Run("re-read fails", func(t *testing.T) {
		store := newMockStore()
		store.seed("task-1", domain.StatusPendiente)
		store.getErrAt = 2
		service := NewService(store)

		_, err := service.Update(context.Background(), "task-1", UpdateRequest{
			Status: strptr(string(domain.StatusTerminado)),
		})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

// A delete can land between the fetch and the persist or re-read. The store
// then reports not-found, and that must surface as not-found to the caller
// rather than being mistaken for a store fault.
func TestServiceUpdateConcurrentDelete(t *testing.T) {
	t.Run("erased before write", func(t *testing.T) {
		store := newMockStore()
		store.seed("task-1", domain.StatusPendiente)
		store.updateErr = domain.ErrNotFound
		service := NewService(store)

		_, err := service.Update(context.Background(), "task-1", UpdateRequest{
			Description: strptr("too late"),
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("not-found must not surface as a store fault, got %v", err)
		}
	})

	t.Run("erased before re-read", func(t *testing.T) {
		store := newMockStore()
		store.seed("task-1", domain.StatusPendiente)
		store.onUpdate = func(*domain.Task) {
			delete(store.tasks, "task-1")
		}
		service := NewService(store)

		_, err := service.Update(context.Background(), "task-1", UpdateRequest{
			Description: strptr("too late"),
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("not-found must not surface as a store fault, got %v", err)
		}
	})
}

// The fetch-mutate-persist sequence takes no locks, so two interleaved
// updates to the same id can both pass the transition check against the
// same fetched state and the later write wins. The store is the designated
// authority for concurrency control; this pins the engine's behavior down
// rather than hiding it.
func TestServiceUpdateLostUpdateWindow(t *testing.T) {
	store := newMockStore()
	store.seed("task-1", domain.StatusPendiente)
	service := NewService(store)

	first, err := service.Update(context.Background(), "task-1", UpdateRequest{
		Description: strptr("from request A"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if first.Description != "from request A" {
		t.Fatalf("unexpected description %q", first.Description)
	}

	// A second writer that fetched before A persisted would now overwrite
	// A's description without ever seeing it.
	second, err := service.Update(context.Background(), "task-1", UpdateRequest{
		Description: strptr("from request B"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if second.Description != "from request B" {
		t.Errorf("expected last write to win, got %q", second.Description)
	}
}

func TestServiceDelete(t *testing.T) {
	t.Run("existing task", func(t *testing.T) {
		store := newMockStore()
		store.seed("task-1", domain.StatusPendiente)
		service := NewService(store)

		if err := service.Delete(context.Background(), "task-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok := store.tasks["task-1"]; ok {
			t.Error("expected task to be erased")
		}
	})

	t.Run("non-existent task", func(t *testing.T) {
		store := newMockStore()
		service := NewService(store)

		err := service.Delete(context.Background(), "doesnotexist")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("erase fails", func(t *testing.T) {
		store := newMockStore()
		store.seed("task-1", domain.StatusPendiente)
		store.eraseErr = errors.New("disk full")
		service := NewService(store)

		err := service.Delete(context.Background(), "task-1")
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
		if _, ok := store.tasks["task-1"]; !ok {
			t.Error("expected task to still exist after failed erase")
		}
	})
}

func TestServiceGet(t *testing.T) {
	store := newMockStore()
	store.seed("task-1", domain.StatusTerminado)
	service := NewService(store)

	found, err := service.Get(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found.Status != domain.StatusTerminado {
		t.Errorf("expected status %s, got %s", domain.StatusTerminado, found.Status)
	}

	if _, err := service.Get(context.Background(), "doesnotexist"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
