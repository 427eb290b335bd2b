// Package events publishes domain events for external consumers.
package events

import (
	"context"
	"time"
)

// Event names. The published subject is "<prefix>.<name>".
const (
	FarmCreated   = "farm.created"
	FarmAccess    = "farm.access"
	FarmLeave     = "farm.leave"
	TaskGenerated = "task.generated"
	TaskCompleted = "task.completed"
)

// FarmEvent is the payload of the farm.* events.
type FarmEvent struct {
	Owner      string    `json:"owner"`
	World      string    `json:"world"`
	PlayerID   string    `json:"player_id,omitempty"`
	PlayerName string    `json:"player_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// TaskEvent is the payload of the task.* events.
type TaskEvent struct {
	PlayerID  string    `json:"player_id"`
	Kind      string    `json:"kind"`
	Task      string    `json:"task"`
	Reward    float64   `json:"reward"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events. Publish must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }
