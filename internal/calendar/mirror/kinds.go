package mirror

import (
	"time"

	"ms-calendar/internal/models"
)

const (
	DefaultDescription = "No description provided"

	day = 24 * time.Hour
)

// Kind describes how one external service's records become calendar events.
type Kind struct {
	Type models.EventType
	// RefField names the payload field the service sends its id in.
	RefField    string
	TitlePrefix string
	// FallbackTitle is used when the payload has no title. Kinds without
	// one require a title.
	FallbackTitle string
	// Window is the event length for kinds that are scheduled from now.
	Window time.Duration
	// CallerScheduled kinds take start and end from the payload.
	CallerScheduled  bool
	DefaultStatus    string
	DefaultCreatedBy string
}

var kinds = map[models.EventType]Kind{
	models.EventTypeBug: {
		Type:             models.EventTypeBug,
		RefField:         "bug_id",
		TitlePrefix:      "Bug: ",
		Window:           3 * day,
		DefaultStatus:    "Pending",
		DefaultCreatedBy: "system",
	},
	models.EventTypeCodeReview: {
		Type:             models.EventTypeCodeReview,
		RefField:         "review_id",
		TitlePrefix:      "Review: ",
		Window:           2 * day,
		DefaultStatus:    "Pending",
		DefaultCreatedBy: "system",
	},
	models.EventTypeForumTopic: {
		Type:             models.EventTypeForumTopic,
		RefField:         "referenceId",
		FallbackTitle:    "Forum Topic",
		Window:           day,
		CallerScheduled:  true,
		DefaultStatus:    "active",
		DefaultCreatedBy: "forum_service",
	},
}

// KindFor returns the mirror rules for t. General events are not mirrored.
func KindFor(t models.EventType) (Kind, bool) {
	k, ok := kinds[t]
	return k, ok
}
