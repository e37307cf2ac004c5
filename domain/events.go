package domain

import "encoding/json"

const (
	EntityProject  = "project"
	EntityTask     = "task"
	EntityEmployee = "employee"
	EntityCategory = "category"
)

// Event actions, combined with the entity type as "<entity>-<action>".
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event represents a change in the domain model.
type Event struct {
	ID         string          `json:"id"`
	EntityID   string          `json:"entityId"`
	EntityType string          `json:"entityType"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	Time       int64           `json:"time"`
	UserID     string          `json:"userId"`
}

// EventType joins an entity type and an action, e.g. "task-created".
func EventType(entity, action string) string {
	return entity + "-" + action
}
