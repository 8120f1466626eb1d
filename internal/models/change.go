package models

import "time"

type ChangeAction string

const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeDeleted ChangeAction = "deleted"
)

// EventChange is published to Kafka and to SSE subscribers after every write.
type EventChange struct {
	Action     ChangeAction `json:"action"`
	Actor      string       `json:"actor,omitempty"`
	Event      Event        `json:"event"`
	OccurredAt time.Time    `json:"occurredAt"`
}
