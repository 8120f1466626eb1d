package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type EventType string

const (
	EventTypeGeneral    EventType = "general"
	EventTypeBug        EventType = "bug"
	EventTypeCodeReview EventType = "code_review"
	EventTypeForumTopic EventType = "forum_topic"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeGeneral, EventTypeBug, EventTypeCodeReview, EventTypeForumTopic:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Event is one calendar entry, either created by a user or mirrored from an
// external service. Mirrored events carry the external id in ReferenceID.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Start       time.Time `bun:"start_at,notnull" json:"start"`
	End         time.Time `bun:"end_at,notnull" json:"end"`
	AllDay      bool      `bun:"all_day,notnull" json:"allDay"`
	Desc        string    `bun:"description" json:"desc"`
	CreatedBy   string    `bun:"created_by" json:"createdBy"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
	EventType   EventType `bun:"event_type,notnull" json:"eventType"`
	ReferenceID string    `bun:"reference_id,nullzero" json:"referenceId,omitempty"`
	Status      string    `bun:"status" json:"status,omitempty"`
	Priority    Priority  `bun:"priority,notnull" json:"priority"`
}

var _ bun.AfterScanRowHook = (*Event)(nil)

// AfterScanRow puts scanned timestamps back in UTC; drivers hand them back
// in Local or an unnamed offset zone.
func (e *Event) AfterScanRow(ctx context.Context) error {
	e.Start = e.Start.UTC()
	e.End = e.End.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return nil
}

// EventInput is the body of a direct create. Dates stay as strings so that
// malformed values surface as validation errors instead of decode errors.
type EventInput struct {
	Title       string    `json:"title"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	AllDay      bool      `json:"allDay"`
	Desc        string    `json:"desc"`
	CreatedBy   string    `json:"createdBy"`
	EventType   EventType `json:"eventType"`
	ReferenceID string    `json:"referenceId"`
	Status      string    `json:"status"`
	Priority    Priority  `json:"priority"`
}

// EventPatch is a partial update; nil fields are left untouched.
type EventPatch struct {
	Title       *string    `json:"title,omitempty"`
	Start       *string    `json:"start,omitempty"`
	End         *string    `json:"end,omitempty"`
	AllDay      *bool      `json:"allDay,omitempty"`
	Desc        *string    `json:"desc,omitempty"`
	CreatedBy   *string    `json:"createdBy,omitempty"`
	EventType   *EventType `json:"eventType,omitempty"`
	ReferenceID *string    `json:"referenceId,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
}

func (p EventPatch) IsEmpty() bool {
	return p == EventPatch{}
}

type CreatorCount struct {
	CreatedBy string `bun:"created_by" json:"createdBy"`
	Count     int    `bun:"count" json:"count"`
}
