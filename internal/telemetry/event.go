package telemetry

import "time"

type EventType string

const (
	EventBlockAdded          EventType = "block_added"
	EventBlockCompleted      EventType = "block_completed"
	EventBlockReopened       EventType = "block_reopened"
	EventBlockDeleted        EventType = "block_deleted"
	EventBlockReordered      EventType = "block_reordered"
	EventRecurrenceGenerated EventType = "recurrence_generated"
	EventRecurrenceStopped   EventType = "recurrence_stopped"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
