package task

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPendiente Status = "PENDIENTE"
	StatusTerminado Status = "TERMINADO"
	StatusCancelado Status = "CANCELADO"
)

// Valid reports whether s is one of the three enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPendiente, StatusTerminado, StatusCancelado:
		return true
	default:
		return false
	}
}

// Terminal reports whether s admits no transition to another status.
func (s Status) Terminal() bool {
	return s == StatusTerminado || s == StatusCancelado
}

// CanTransition reports whether a task may move from one status to another.
// Re-asserting the current status is always allowed. The terminal statuses
// never cross over to each other, so a finished outcome cannot be rewritten.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPendiente:
		return to == StatusTerminado || to == StatusCancelado
	default:
		return false
	}
}

// Attributes holds the free-form descriptive fields of a task (category,
// location, price, contact, ...). They are stored and returned verbatim.
type Attributes map[string]any

// Managed field names. These live in dedicated Task columns and are never
// part of Attributes.
const (
	FieldID          = "id"
	FieldStatus      = "status"
	FieldDescription = "description"
	FieldDate        = "date"
)

// Reserved reports whether name is a managed task field.
func Reserved(name string) bool {
	switch name {
	case FieldID, FieldStatus, FieldDescription, FieldDate:
		return true
	default:
		return false
	}
}

// Task is the core domain entity.
type Task struct {
	ID          string     `gorm:"primarykey;size:36"`
	Status      Status     `gorm:"size:16;not null;default:PENDIENTE"`
	Description string     `gorm:"size:500"`
	Date        time.Time  `gorm:"not null"`
	Attributes  Attributes `gorm:"serializer:json"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// MarshalJSON renders the task as a flat document: the managed fields plus
// every free-form attribute at the top level.
func (t Task) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(t.Attributes)+4)
	for k, v := range t.Attributes {
		doc[k] = v
	}
	doc[FieldID] = t.ID
	doc[FieldStatus] = t.Status
	doc[FieldDate] = t.Date
	if t.Description != "" {
		doc[FieldDescription] = t.Description
	}
	return json.Marshal(doc)
}

// UnmarshalJSON splits a flat document back into managed fields and
// free-form attributes.
func (t *Task) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if raw, ok := doc[FieldID]; ok {
		if err := json.Unmarshal(raw, &t.ID); err != nil {
			return err
		}
	}
	if raw, ok := doc[FieldStatus]; ok {
		if err := json.Unmarshal(raw, &t.Status); err != nil {
			return err
		}
	}
	if raw, ok := doc[FieldDescription]; ok {
		if err := json.Unmarshal(raw, &t.Description); err != nil {
			return err
		}
	}
	if raw, ok := doc[FieldDate]; ok {
		if err := json.Unmarshal(raw, &t.Date); err != nil {
			return err
		}
	}

	for k, raw := range doc {
		if Reserved(k) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if t.Attributes == nil {
			t.Attributes = make(Attributes)
		}
		t.Attributes[k] = v
	}
	return nil
}
