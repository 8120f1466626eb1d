package models

// MirrorPayload is what the bug tracker, the code-review tool and the forum
// send when they want a calendar entry for one of their records. Each
// service names its identifier differently.
type MirrorPayload struct {
	BugID       string  `json:"bug_id,omitempty"`
	ReviewID    string  `json:"review_id,omitempty"`
	ReviewerID  string  `json:"reviewer_id,omitempty"`
	ReferenceID string  `json:"referenceId,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	CreatedBy   string  `json:"createdBy,omitempty"`
	Start       *string `json:"start,omitempty"`
	End         *string `json:"end,omitempty"`
}

// Reference returns the external id for the given kind, falling back to the
// generic referenceId field.
func (p MirrorPayload) Reference(t EventType) string {
	switch t {
	case EventTypeBug:
		if p.BugID != "" {
			return p.BugID
		}
	case EventTypeCodeReview:
		if p.ReviewID != "" {
			return p.ReviewID
		}
	}
	return p.ReferenceID
}

type SyncAction string

const (
	SyncActionMirror SyncAction = "mirror"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

// SyncMessage is the envelope external services publish on the sync topic.
type SyncMessage struct {
	Action      SyncAction     `json:"action"`
	Kind        EventType      `json:"kind,omitempty"`
	ReferenceID string         `json:"referenceId,omitempty"`
	Actor       string         `json:"actor,omitempty"`
	Payload     *MirrorPayload `json:"payload,omitempty"`
	Patch       *EventPatch    `json:"patch,omitempty"`
}
