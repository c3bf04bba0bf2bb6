package entity

import (
	"time"
)

type ActionType string

const (
	ActionCreate ActionType = "Create"
	ActionUpdate ActionType = "Update"
	ActionDelete ActionType = "Delete"
)

type TaskAudit struct {
	ID         int64      `json:"id"`
	Action     ActionType `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	OldValues  *string    `json:"old_values"`
	NewValues  *string    `json:"new_values"`
	Changes    *string    `json:"changes"`
	ChangedAt  time.Time  `json:"changed_at"`
}

type AuditMessage struct {
	Action    ActionType     `json:"action"`
	EntityID  int64          `json:"entity_id"`
	OldValues map[string]any `json:"old_values"`
	NewValues map[string]any `json:"new_values"`
	Changes   map[string]any `json:"changes"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewAuditMessage заполняет значения в зависимости от действия.
// Для Update в Changes попадают только изменившиеся поля.
func NewAuditMessage(action ActionType, taskID int64, oldTask, newTask *Task, now time.Time) *AuditMessage {
	msg := &AuditMessage{
		Action:    action,
		EntityID:  taskID,
		Timestamp: now,
	}
	if oldTask != nil {
		msg.OldValues = oldTask.AsMap()
	}
	if newTask != nil {
		msg.NewValues = newTask.AsMap()
	}
	if action == ActionUpdate && msg.OldValues != nil && msg.NewValues != nil {
		changes := make(map[string]any)
		for field, oldValue := range msg.OldValues {
			newValue := msg.NewValues[field]
			if oldValue != newValue {
				changes[field] = map[string]any{"old": oldValue, "new": newValue}
			}
		}
		msg.Changes = changes
	}
	return msg
}
